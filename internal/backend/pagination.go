package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const maxPages = 500

// List fetches every page of a collection. Bare arrays are a single page;
// paginated objects carry their items under results or data and the next
// page URL under next. Next links are resolved against the base URL without
// rewriting, so absolute and root-relative links are followed verbatim.
func (c *Client) List(ctx context.Context, path string, query url.Values) (Result[[]gjson.Result], error) {
	var (
		items  []gjson.Result
		status int
		seen   = map[string]struct{}{}
	)
	target, err := c.resolve(path, query)
	if err != nil {
		return fail[[]gjson.Result](0, err.Error()), fmt.Errorf("%w: build url: %v", ErrTransport, err)
	}
	for page := 0; target != "" && page < maxPages; page++ {
		if _, dup := seen[target]; dup {
			break
		}
		seen[target] = struct{}{}

		res, err := c.send(ctx, http.MethodGet, target, nil)
		if err != nil || !res.Success {
			return fail[[]gjson.Result](res.Status, res.Error), err
		}
		status = res.Status

		var next string
		data := res.Data
		switch {
		case data.IsArray():
			items = append(items, data.Array()...)
		case data.Get("results").IsArray():
			items = append(items, data.Get("results").Array()...)
			next = data.Get("next").String()
		case data.Get("data").IsArray():
			items = append(items, data.Get("data").Array()...)
			next = data.Get("next").String()
		}
		target = ""
		if next != "" {
			if target, err = c.resolveRef(next, nil); err != nil {
				return fail[[]gjson.Result](0, err.Error()), fmt.Errorf("%w: build url: %v", ErrTransport, err)
			}
		}
	}
	if items == nil {
		items = []gjson.Result{}
	}
	return succeed(items, status), nil
}
