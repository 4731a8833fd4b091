package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

var introQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
    directives {
      name
      description
      locations
      args {
        ...InputValue
      }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`

type gqlReq struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName,omitempty"`
}

// leveledZap logs retryablehttp events through zap.
type leveledZap struct {
	inner *zap.SugaredLogger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// newHTTPClient returns a client which retries on connection errors, 5xx
// responses (except 501) and 429s.
//
func newHTTPClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{zap.S().Named("http")})
	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second
	return client
}

// fetch loads a remote schema. GraphQL and JSON files are downloaded,
// anything else is treated as an endpoint and introspected.
//
func fetch(ctx context.Context, client *http.Client, endpoint string, headers http.Header) (*ast.Source, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	switch ext := path.Ext(u.Path); ext {
	case ".graphql", ".gql", ".json":
		zap.L().Info("fetching remote file", zap.String("name", endpoint), zap.Int("headers", len(headers)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		addHeaders(req, headers)

		b, err := do(client, req)
		if err != nil {
			return nil, err
		}

		input := string(b)
		if ext == ".json" {
			if input, err = convertIntrospection(b); err != nil {
				return nil, fmt.Errorf("gqlc-perl: %s: %w", endpoint, err)
			}
		}
		return &ast.Source{Name: endpoint, Input: input}, nil
	}

	zap.L().Info("fetching types via introspection", zap.String("endpoint", endpoint), zap.Int("headers", len(headers)))
	input, err := introspect(ctx, client, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("gqlc-perl: introspection of %s failed: %w", endpoint, err)
	}
	return &ast.Source{Name: endpoint, Input: input}, nil
}

func introspect(ctx context.Context, client *http.Client, endpoint string, headers http.Header) (string, error) {
	body, err := json.Marshal(gqlReq{Query: introQuery, OperationName: "IntrospectionQuery"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	addHeaders(req, headers)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	b, err := do(client, req)
	if err != nil {
		return "", err
	}
	return convertIntrospection(b)
}

func addHeaders(req *http.Request, headers http.Header) {
	for k, v := range headers {
		for _, s := range v {
			req.Header.Add(k, s)
		}
	}
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response status: %s: %s", resp.Status, bytes.TrimSpace(b))
	}
	return b, nil
}
