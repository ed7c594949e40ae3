package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Builtins returns one instance of every built-in tool. Handy for wiring a
// fully equipped agent or registry in one call.
func Builtins() []Tool {
	return []Tool{
		NewCalculator(),
		NewHTTPRequest(),
		NewFileReader(),
		NewFileWriter(),
		NewDateTime(),
		NewJSONParser(),
	}
}

// NewCalculator returns a tool that evaluates arithmetic expressions.
// Supports + - * /, parentheses, unary minus, common math functions
// (sqrt, pow, min, max, abs, sin, cos, tan, log, exp, floor, ceil, round)
// and the constants pi and e.
func NewCalculator() *FunctionTool {
	return NewFunctionTool(
		"calculator",
		"Evaluate mathematical expressions safely",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "Math expression to evaluate (e.g., \"2 + 2\", \"sqrt(16)\")",
				},
			},
			"required": []string{"expression"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			expression, _ := args["expression"].(string)
			result, err := evalExpression(expression)
			if err != nil {
				return nil, fmt.Errorf("evaluate %q: %w", expression, err)
			}
			return map[string]any{
				"expression": expression,
				"result":     result,
				"success":    true,
			}, nil
		},
	)
}

// NewHTTPRequest returns a tool that performs HTTP requests against external
// APIs. Supports GET, POST, PUT, DELETE with optional headers and body.
func NewHTTPRequest() *FunctionTool {
	return NewFunctionTool(
		"http_request",
		"Make HTTP requests to external APIs",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":     map[string]any{"type": "string", "description": "The URL to request"},
				"method":  map[string]any{"type": "string", "description": "HTTP method (GET, POST, PUT, DELETE)"},
				"headers": map[string]any{"type": "object", "description": "Optional request headers"},
				"body":    map[string]any{"type": "string", "description": "Optional request body"},
				"timeout": map[string]any{"type": "number", "description": "Request timeout in seconds (default 30)"},
			},
			"required": []string{"url"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			url, _ := args["url"].(string)
			method := "GET"
			if m, ok := args["method"].(string); ok && m != "" {
				method = strings.ToUpper(m)
			}
			timeout := 30 * time.Second
			if t, ok := args["timeout"].(float64); ok && t > 0 {
				timeout = time.Duration(t * float64(time.Second))
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			var bodyReader io.Reader
			if body, ok := args["body"].(string); ok && body != "" {
				bodyReader = strings.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
			if err != nil {
				return nil, fmt.Errorf("build request: %w", err)
			}
			if headers, ok := args["headers"].(map[string]any); ok {
				for k, v := range headers {
					if s, ok := v.(string); ok {
						req.Header.Set(k, s)
					}
				}
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read response: %w", err)
			}

			// Parsed JSON when the response is JSON, raw text otherwise.
			var body any = string(raw)
			if json.Valid(raw) {
				var parsed any
				if err := json.Unmarshal(raw, &parsed); err == nil {
					body = parsed
				}
			}

			headers := map[string]string{}
			for k := range resp.Header {
				headers[k] = resp.Header.Get(k)
			}
			return map[string]any{
				"status_code": resp.StatusCode,
				"headers":     headers,
				"body":        body,
				"success":     resp.StatusCode >= 200 && resp.StatusCode < 300,
			}, nil
		},
	)
}

// NewFileReader returns a tool that reads text files from the filesystem.
func NewFileReader() *FunctionTool {
	return NewFunctionTool(
		"file_reader",
		"Read content from a file",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":      map[string]any{"type": "string", "description": "Path to the file to read"},
				"max_bytes": map[string]any{"type": "integer", "description": "Maximum bytes to read (optional)"},
			},
			"required": []string{"path"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			path, _ := args["path"].(string)

			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", path)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("not a file: %s", path)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			if maxBytes, ok := args["max_bytes"].(float64); ok && maxBytes > 0 && int(maxBytes) < len(data) {
				data = data[:int(maxBytes)]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			return map[string]any{
				"path":       abs,
				"content":    string(data),
				"size_bytes": info.Size(),
				"success":    true,
			}, nil
		},
	)
}

// NewFileWriter returns a tool that writes or appends text files, creating
// parent directories as needed.
func NewFileWriter() *FunctionTool {
	return NewFunctionTool(
		"file_writer",
		"Write content to a file",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "Path to the file to write"},
				"content": map[string]any{"type": "string", "description": "Content to write"},
				"mode":    map[string]any{"type": "string", "description": "Write mode: \"write\" (overwrite) or \"append\""},
			},
			"required": []string{"path", "content"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)
			mode, _ := args["mode"].(string)
			if mode == "" {
				mode = "write"
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create directory %s: %w", dir, err)
				}
			}

			flags := os.O_CREATE | os.O_WRONLY
			if mode == "append" {
				flags |= os.O_APPEND
			} else {
				flags |= os.O_TRUNC
			}
			f, err := os.OpenFile(path, flags, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			n, err := f.WriteString(content)
			if err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			return map[string]any{
				"path":          abs,
				"bytes_written": n,
				"mode":          mode,
				"success":       true,
			}, nil
		},
	)
}

// NewDateTime returns a tool that reports the current date and time in UTC.
// Operations: "now", "date", "time", "timestamp".
func NewDateTime() *FunctionTool {
	return NewFunctionTool(
		"datetime",
		"Get current date/time or perform date calculations",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{"type": "string", "description": "Operation type: \"now\", \"date\", \"time\", \"timestamp\""},
				"format":    map[string]any{"type": "string", "description": "Output format in Go reference layout (default \"2006-01-02 15:04:05\")"},
			},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			operation, _ := args["operation"].(string)
			if operation == "" {
				operation = "now"
			}
			format, _ := args["format"].(string)
			if format == "" {
				format = "2006-01-02 15:04:05"
			}

			now := time.Now().UTC()
			switch operation {
			case "now":
				return map[string]any{
					"datetime":  now.Format(format),
					"timestamp": now.Unix(),
					"timezone":  "UTC",
					"iso":       now.Format(time.RFC3339),
				}, nil
			case "date":
				return map[string]any{
					"date":    now.Format("2006-01-02"),
					"year":    now.Year(),
					"month":   int(now.Month()),
					"day":     now.Day(),
					"weekday": now.Weekday().String(),
				}, nil
			case "time":
				return map[string]any{
					"time":   now.Format("15:04:05"),
					"hour":   now.Hour(),
					"minute": now.Minute(),
					"second": now.Second(),
				}, nil
			case "timestamp":
				return map[string]any{
					"timestamp":    now.Unix(),
					"timestamp_ms": now.UnixMilli(),
				}, nil
			default:
				return nil, fmt.Errorf("unknown operation: %s", operation)
			}
		},
	)
}

// NewJSONParser returns a tool that parses, validates and extracts data from
// JSON strings. Path extraction uses gjson path syntax (e.g.
// "data.users.0.name").
func NewJSONParser() *FunctionTool {
	return NewFunctionTool(
		"json_parser",
		"Parse, validate, and extract data from JSON",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"json_string": map[string]any{"type": "string", "description": "JSON string to parse"},
				"path":        map[string]any{"type": "string", "description": "Optional path to extract (e.g., \"data.users.0.name\")"},
				"operation":   map[string]any{"type": "string", "description": "Operation: \"parse\", \"validate\", \"prettify\""},
			},
			"required": []string{"json_string"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			jsonString, _ := args["json_string"].(string)
			path, _ := args["path"].(string)
			operation, _ := args["operation"].(string)

			valid := gjson.Valid(jsonString)
			if operation == "validate" {
				return map[string]any{"valid": valid}, nil
			}
			if !valid {
				return nil, fmt.Errorf("invalid JSON")
			}

			if operation == "prettify" {
				var data any
				if err := json.Unmarshal([]byte(jsonString), &data); err != nil {
					return nil, fmt.Errorf("parse JSON: %w", err)
				}
				formatted, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return nil, fmt.Errorf("format JSON: %w", err)
				}
				return map[string]any{
					"formatted": string(formatted),
					"success":   true,
				}, nil
			}

			if path != "" {
				result := gjson.Get(jsonString, path)
				if !result.Exists() {
					return nil, fmt.Errorf("path extraction failed: %s", path)
				}
				return map[string]any{
					"path":    path,
					"value":   result.Value(),
					"success": true,
				}, nil
			}

			var data any
			if err := json.Unmarshal([]byte(jsonString), &data); err != nil {
				return nil, fmt.Errorf("parse JSON: %w", err)
			}
			return map[string]any{
				"data":    data,
				"success": true,
			}, nil
		},
	)
}
