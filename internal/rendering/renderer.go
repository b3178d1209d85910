package rendering

import (
	"bytes"
	"fmt"

	"github.com/labstack/echo/v4"
	"maragu.dev/gomponents"
)

// Renderer defines the contract for rendering gomponents pages and fragments.
type Renderer interface {
	// RenderComponent renders a component to a slice of bytes. Useful for HTMX fragments.
	RenderComponent(component gomponents.Node) ([]byte, error)

	// RenderPage writes a full HTML response.
	RenderPage(c echo.Context, status int, component gomponents.Node) error
}

// NodeRenderer is the concrete Renderer.
type NodeRenderer struct{}

// NewNodeRenderer creates a new NodeRenderer instance.
func NewNodeRenderer() *NodeRenderer {
	return &NodeRenderer{}
}

// RenderComponent implements the Renderer interface.
func (r *NodeRenderer) RenderComponent(component gomponents.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage implements the Renderer interface for full HTTP responses.
// The page is rendered to a buffer first so a rendering error can still
// become a proper error response.
func (r *NodeRenderer) RenderPage(c echo.Context, status int, component gomponents.Node) error {
	body, err := r.RenderComponent(component)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}
