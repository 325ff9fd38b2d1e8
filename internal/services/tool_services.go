package services

import (
	"strings"

	"reconview/internal/catalog"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"

	"github.com/sirupsen/logrus"
)

type ToolServiceMethods interface {
	ListTools() []catalog.Tool
	DefaultTools() []string
	ValidateSelection(names []string) error
}

type toolService struct {
	catalog *catalog.Catalog
	log     *logger.Logger
}

func NewToolService(c *catalog.Catalog) ToolServiceMethods {
	return &toolService{
		catalog: c,
		log:     logger.NewLogger(logrus.Level(logrus.InfoLevel)),
	}
}

func (s *toolService) ListTools() []catalog.Tool {
	return s.catalog.Tools()
}

func (s *toolService) DefaultTools() []string {
	return s.catalog.Defaults()
}

// ValidateSelection rejects tool names the catalog does not know. An empty
// selection is left to the scan controller to reject.
func (s *toolService) ValidateSelection(names []string) error {
	unknown := s.catalog.Unknown(names)
	if len(unknown) == 0 {
		return nil
	}
	s.log.WithField("tools", unknown).Warn("Rejected unknown tools")
	return rverrors.NewValidationError("tools", "Unknown tools: "+strings.Join(unknown, ", "))
}
