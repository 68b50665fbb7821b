package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls the fiscal service.
type Client struct {
	conn   grpc.ClientConnInterface
	locale string
}

// NewClient builds a client on conn. locale is sent with every call and
// selects the language of error messages.
func NewClient(conn grpc.ClientConnInterface, locale string) *Client {
	return &Client{conn: conn, locale: locale}
}

// CreateRun generates and stores a run.
func (c *Client) CreateRun(ctx context.Context, entityID string, fiscalYear int) (Run, error) {
	var out Run
	err := c.invoke(ctx, "CreateRun", &CreateRunRequest{EntityID: entityID, FiscalYear: fiscalYear}, &out)
	return out, err
}

// RegenerateRun recomputes a run from current definitions.
func (c *Client) RegenerateRun(ctx context.Context, runID string) (Run, error) {
	var out Run
	err := c.invoke(ctx, "RegenerateRun", &RunRequest{RunID: runID}, &out)
	return out, err
}

// GetRun loads one run.
func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	var out Run
	err := c.invoke(ctx, "GetRun", &RunRequest{RunID: runID}, &out)
	return out, err
}

// ListRunTasks lists run tasks narrowed by filter.
func (c *Client) ListRunTasks(ctx context.Context, runID, filter string) ([]Task, error) {
	var out ListRunTasksResponse
	err := c.invoke(ctx, "ListRunTasks", &ListRunTasksRequest{RunID: runID, Filter: filter}, &out)
	return out.Tasks, err
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.locale != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, LocaleHeader, c.locale)
	}
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, grpc.CallContentSubtype(CodecName))
}
