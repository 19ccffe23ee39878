package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
)

const maxPayloadSize = 32 << 20

// Operation is one call into a third-party API. It returns the raw payload.
type Operation interface {
	Invoke(ctx context.Context, args ...string) (string, error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context, args ...string) (string, error)

func (f OperationFunc) Invoke(ctx context.Context, args ...string) (string, error) {
	return f(ctx, args...)
}

// HTTPOperation fetches a URL built from a template whose {0}, {1}, ...
// placeholders are replaced by the path-escaped arguments.
//
//	HTTPOperation{URLTemplate: "https://restcountries.com/v3.1/alpha/{0}"}
type HTTPOperation struct {
	URLTemplate string
	Client      *http.Client
	Header      http.Header
}

func (o HTTPOperation) Invoke(ctx context.Context, args ...string) (string, error) {
	target := expand(o.URLTemplate, args, url.PathEscape)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, vs := range o.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", common.ErrNetworkFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %d", common.ErrNetworkFailure, target, resp.StatusCode)
	}
	return string(body), nil
}

// expand replaces {i} placeholders with escape(args[i]). Placeholders
// without an argument are left as is.
func expand(template string, args []string, escape func(string) string) string {
	if len(args) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", escape(a))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
