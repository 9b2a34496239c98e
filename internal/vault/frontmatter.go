package vault

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrMalformedFrontmatter reports frontmatter that cannot be parsed as a
// YAML mapping.
var ErrMalformedFrontmatter = errors.New("malformed frontmatter")

// note is a markdown file split into its frontmatter and body.
type note struct {
	open    []byte // opening delimiter line including its newline
	close   []byte // closing delimiter line including its newline
	body    []byte
	present bool
	crlf    bool // the note uses \r\n line endings
	fm      *Frontmatter
}

// splitNote separates the frontmatter from the body. A file that does not
// start with a delimiter line has no frontmatter.
func splitNote(data []byte) (*note, error) {
	n := &note{body: data, fm: newFrontmatter()}

	first, rest, ok := cutLine(data)
	if !ok || !isDelimiter(first) {
		return n, nil
	}

	var yamlText []byte
	remaining := rest
	for {
		line, next, more := cutLine(remaining)
		if isDelimiter(line) && (more || len(line) > 0) {
			n.open = first
			n.close = line
			n.crlf = bytes.HasSuffix(first, []byte("\r\n"))
			n.body = next
			break
		}
		if !more {
			return nil, fmt.Errorf("%w: missing closing delimiter", ErrMalformedFrontmatter)
		}
		yamlText = append(yamlText, line...)
		remaining = next
	}

	fm, err := parseFrontmatter(yamlText)
	if err != nil {
		return nil, err
	}
	n.present = true
	n.fm = fm
	return n, nil
}

// bytes reassembles the note with re-encoded frontmatter.
func (n *note) bytes() ([]byte, error) {
	if !n.present {
		return n.body, nil
	}
	encoded, err := n.fm.encode()
	if err != nil {
		return nil, err
	}
	if n.crlf {
		encoded = bytes.ReplaceAll(bytes.ReplaceAll(encoded, []byte("\r\n"), []byte("\n")), []byte("\n"), []byte("\r\n"))
	}
	var buf bytes.Buffer
	buf.Grow(len(n.open) + len(encoded) + len(n.close) + len(n.body))
	buf.Write(n.open)
	buf.Write(encoded)
	buf.Write(n.close)
	buf.Write(n.body)
	return buf.Bytes(), nil
}

// cutLine returns the first line of data including its line ending. ok is
// false when data holds no newline, in which case line is all of data.
func cutLine(data []byte) (line, rest []byte, ok bool) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i+1], data[i+1:], true
	}
	return data, nil, false
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r\n")) == delimiter
}

// Frontmatter is a YAML mapping backed by a yaml.Node tree. It implements
// rewrite.Block.
type Frontmatter struct {
	doc     *yaml.Node
	mapping *yaml.Node
	changed bool
}

func newFrontmatter() *Frontmatter {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &Frontmatter{
		doc:     &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}},
		mapping: mapping,
	}
}

func parseFrontmatter(text []byte) (*Frontmatter, error) {
	if len(bytes.TrimSpace(text)) == 0 {
		return newFrontmatter(), nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return newFrontmatter(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedFrontmatter)
	}
	return &Frontmatter{doc: &doc, mapping: root}, nil
}

// Changed reports whether Set modified the frontmatter.
func (f *Frontmatter) Changed() bool {
	return f.changed
}

// Get decodes the value stored at key.
func (f *Frontmatter) Get(key string) (any, bool) {
	node := f.lookup(key)
	if node == nil {
		return nil, false
	}
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

// Set stores value at key. Lists of strings that line up with an existing
// sequence are updated item by item so comments and styles survive.
func (f *Frontmatter) Set(key string, value any) {
	existing := f.lookup(key)
	if existing != nil && patchSequence(existing, value) {
		f.changed = true
		return
	}

	var replacement yaml.Node
	if err := replacement.Encode(value); err != nil {
		return
	}
	f.changed = true
	if existing != nil {
		replacement.HeadComment = existing.HeadComment
		replacement.LineComment = existing.LineComment
		replacement.FootComment = existing.FootComment
		*existing = replacement
		return
	}
	f.mapping.Content = append(f.mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&replacement,
	)
}

func (f *Frontmatter) lookup(key string) *yaml.Node {
	content := f.mapping.Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			node := content[i+1]
			if node.Kind == yaml.AliasNode && node.Alias != nil {
				return node.Alias
			}
			return node
		}
	}
	return nil
}

func patchSequence(node *yaml.Node, value any) bool {
	list, ok := value.([]any)
	if !ok || node.Kind != yaml.SequenceNode || len(node.Content) != len(list) {
		return false
	}
	for i, item := range list {
		child := node.Content[i]
		s, isString := item.(string)
		if !isString {
			continue
		}
		if child.Kind != yaml.ScalarNode {
			return false
		}
		if child.Value == s {
			continue
		}
		child.Value = s
		child.Tag = "!!str"
	}
	return true
}

func (f *Frontmatter) encode() ([]byte, error) {
	if len(f.mapping.Content) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.doc); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	return buf.Bytes(), nil
}
