package handlers

import (
	"reconview/internal/catalog"
	"reconview/pkg/lifecycle"
)

// ScanRequest accepts both a JSON body and a form post.
type ScanRequest struct {
	Target string   `json:"target" form:"target"`
	Tools  []string `json:"tools" form:"tools"`
}

type ScanResponse struct {
	Scan lifecycle.Snapshot `json:"scan"`
}

type ScanErrorResponse struct {
	Error string             `json:"error"`
	Scan  lifecycle.Snapshot `json:"scan"`
}

type ToolsResponse struct {
	Tools    []catalog.Tool `json:"tools"`
	Defaults []string       `json:"defaults"`
}
