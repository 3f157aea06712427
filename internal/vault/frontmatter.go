package vault

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"planview/internal/record"
)

const delimiter = "---"

// splitFrontmatter separates a leading "---" fenced YAML block from the note
// body. ok is false when the note has no frontmatter.
func splitFrontmatter(data []byte) (fm, body []byte, ok bool) {
	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte(delimiter+"\n")):
		rest = data[len(delimiter)+1:]
	case bytes.HasPrefix(data, []byte(delimiter+"\r\n")):
		rest = data[len(delimiter)+2:]
	default:
		return nil, data, false
	}

	for i := 0; i <= len(rest); {
		j := bytes.IndexByte(rest[i:], '\n')
		end := len(rest)
		if j >= 0 {
			end = i + j
		}
		if string(bytes.TrimRight(rest[i:end], "\r")) == delimiter {
			next := end + 1
			if j < 0 {
				next = len(rest)
			}
			return rest[:i], rest[next:], true
		}
		if j < 0 {
			break
		}
		i = end + 1
	}
	return nil, data, false
}

func decodeFrontmatter(fm []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(fm)) == 0 {
		return out, nil
	}
	if err := yaml.Unmarshal(fm, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// setProperties rewrites the changed frontmatter keys in one pass, keeping
// the other keys, their order and comments, and the body untouched. A note
// without frontmatter gets one.
func setProperties(data []byte, changes []record.Change) ([]byte, error) {
	fm, body, ok := splitFrontmatter(data)

	var doc yaml.Node
	if ok && len(bytes.TrimSpace(fm)) > 0 {
		if err := yaml.Unmarshal(fm, &doc); err != nil {
			return nil, fmt.Errorf("parsing frontmatter: %w", err)
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("frontmatter is not a mapping")
	}

	for _, c := range changes {
		setKey(root, c.Property, c.Value)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	buf.WriteString(delimiter + "\n")
	if !ok {
		body = data
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

func setKey(root *yaml.Node, key, value string) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != key {
			continue
		}
		v := root.Content[i+1]
		v.Kind = yaml.ScalarNode
		v.Tag = ""
		v.Style = 0
		v.Value = value
		v.Content = nil
		return
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}
