package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// maxLogLine bounds one NDJSON line; tracebacks can be long.
const maxLogLine = 4 << 20

// ErrStopStream can be returned by a StreamLog callback to end early
// without an error.
var ErrStopStream = errors.New("stop stream")

// LogTree returns the server's log index as a tree rooted at "".
// Files come before directories and each group is sorted by name,
// newest first.
func (c *Client) LogTree(ctx context.Context) (*LogNode, error) {
	data, err := c.get(ctx, "/api/manage/logs", nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	root := LogNode{Dir: true}
	children, err := decodeLogChildren(raw, "")
	if err != nil {
		return nil, err
	}
	root.Children = children
	return &root, nil
}

func decodeLogChildren(raw map[string]json.RawMessage, parent string) ([]LogNode, error) {
	var files, dirs []LogNode
	for name, body := range raw {
		if name == "_type" {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode log entry %q: %w", name, err)
		}
		var kind string
		_ = json.Unmarshal(fields["_type"], &kind)

		rel := name
		if parent != "" {
			rel = parent + "/" + name
		}
		node := LogNode{Name: name, Path: rel}
		switch kind {
		case "file":
			var meta struct {
				Path string `json:"path"`
				Size int64  `json:"size"`
			}
			if err := json.Unmarshal(body, &meta); err != nil {
				return nil, fmt.Errorf("decode log file %q: %w", name, err)
			}
			if meta.Path != "" {
				node.Path = meta.Path
			}
			node.Size = meta.Size
			files = append(files, node)
		default:
			node.Dir = true
			children, err := decodeLogChildren(fields, rel)
			if err != nil {
				return nil, err
			}
			node.Children = children
			dirs = append(dirs, node)
		}
	}
	byNameDesc := func(nodes []LogNode) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name > nodes[j].Name })
	}
	byNameDesc(files)
	byNameDesc(dirs)
	return append(files, dirs...), nil
}

// StreamLog reads the log file at path and calls fn for every line.
// Lines that are not JSON objects, or that carry an error key, are passed
// on as records with Error set.
func (c *Client) StreamLog(ctx context.Context, path string, fn func(LogRecord) error) error {
	path = strings.Trim(path, "/")
	if path == "" {
		return errors.New("log path is required")
	}
	body, err := c.openStream(ctx, "/api/manage/logs/"+escapePath(path))
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLogLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(ParseLogLine(line)); err != nil {
			if errors.Is(err, ErrStopStream) {
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read log stream: %w", err)
	}
	return nil
}

// ParseLogLine decodes one NDJSON line. It never fails.
func ParseLogLine(line []byte) LogRecord {
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		var text string
		if json.Unmarshal(line, &text) == nil {
			return LogRecord{Error: strings.TrimSpace(text)}
		}
		return LogRecord{Error: strings.TrimSpace(string(line))}
	}
	rec := LogRecord{
		Time:      stringField(fields, "asctime"),
		Level:     strings.ToUpper(stringField(fields, "levelname")),
		Component: stringField(fields, "name"),
		Message:   stringField(fields, "message"),
	}
	if raw, ok := fields["error"]; ok {
		if rec.Error = errorMessage(raw); rec.Error == "" {
			rec.Error = fmt.Sprint(raw)
		}
	}
	for _, k := range []string{"asctime", "levelname", "name", "message", "error"} {
		delete(fields, k)
	}
	if len(fields) > 0 {
		rec.Extra = fields
	}
	return rec
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
