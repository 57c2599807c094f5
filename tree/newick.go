package tree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode is the state of the newick parser.
type Mode int

const (
	NORMAL Mode = iota
	LENGTH
)

func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', ';', ',', '[', '\'':
		return true
	}
	return false
}

// closing returns the terminator of a bracketed token.
func closing(c rune) rune {
	switch c {
	case '[':
		return ']'
	case '\'':
		return '\''
	}
	return 0
}

// NewickSplit is a bufio.SplitFunc for newick. Comments in square
// brackets and quoted labels are returned as single tokens including the
// delimiters.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if end := closing(r); end != 0 {
			for i := start + width; i < len(data); {
				q, w := utf8.DecodeRune(data[i:])
				i += w
				if q == end {
					return i, data[start:i], nil
				}
			}
			if atEOF {
				return 0, nil, fmt.Errorf("unterminated %c", r)
			}
			return start, nil, nil
		}
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) {
			return i, data[start:i], nil
		}
	}
	// If we're at EOF, we have a final, non-empty, non-terminated word. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return start, nil, nil
}

// ParseNewick reads one tree in newick or NHX format.
func ParseNewick(rd io.Reader) (*Tree, error) {
	return ParseNewickWith(rd, ExtractNone)
}

// ParseNewickWith reads one tree and derives leaf taxonomy from names
// when NHX does not provide it.
func ParseNewickWith(rd io.Reader, mode Extraction) (tree *Tree, err error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(NewickSplit)

	tree, err = parse(scanner)
	if err != nil {
		return nil, err
	}
	tree.ExtractTaxonomy(mode)
	return tree, nil
}

// ParseNewickString is a shortcut for parsing a literal tree.
func ParseNewickString(s string, mode Extraction) (*Tree, error) {
	return ParseNewickWith(strings.NewReader(s), mode)
}

func parse(scanner *bufio.Scanner) (tree *Tree, err error) {
	nodeId := 0

	node := NewNode(nil, nodeId)
	tree = &Tree{Node: node}
	nodeId++

	mode := NORMAL
	started := false

	for scanner.Scan() {
		text := scanner.Text()
		started = true
		switch text {
		case "(":
			subNode := NewNode(nil, nodeId)
			nodeId++
			node.AddChild(subNode)
			node = subNode

		case ",":
			if node.Parent == nil {
				return nil, errors.New("top level comma mismatch")
			}
			subNode := NewNode(nil, nodeId)
			nodeId++

			node.Parent.AddChild(subNode)
			node = subNode

		case ")":
			if node.Parent == nil {
				return nil, errors.New("brackets mismatch")
			}
			node = node.Parent
		case ":":
			mode = LENGTH
		case ";":
			if node.Parent != nil {
				return nil, errors.New("brackets mismatch")
			}
			return tree, nil
		default:
			switch {
			case text[0] == '[':
				if err := parseComment(node, text); err != nil {
					return nil, err
				}
			case mode == LENGTH:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, err
				}
				node.BranchLength = l
				mode = NORMAL
			case text[0] == '\'':
				node.Name = strings.Trim(text, "'")
			default:
				node.Name = text
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !started {
		return nil, io.EOF
	}
	if node.Parent != nil {
		return nil, errors.New("brackets mismatch")
	}
	return tree, nil
}

// parseComment reads NHX tags from a "[&&NHX:K=V:...]" comment. Other
// comments are ignored.
func parseComment(node *Node, text string) error {
	body := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	if !strings.HasPrefix(body, "&&NHX") {
		return nil
	}
	for _, field := range strings.Split(body, ":")[1:] {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		value := kv[1]
		switch kv[0] {
		case "S":
			if node.Taxonomy == nil {
				node.Taxonomy = &Taxonomy{}
			}
			if IsTaxonomyCode(value) {
				node.Taxonomy.Code = value
			} else {
				node.Taxonomy.ScientificName = value
			}
		case "T":
			if node.Taxonomy == nil {
				node.Taxonomy = &Taxonomy{}
			}
			node.Taxonomy.ID = value
		case "D":
			switch value {
			case "Y", "T":
				node.Event = Duplication
			case "N", "F":
				node.Event = Speciation
			case "?":
				node.Event = SpeciationOrDuplication
			default:
				return fmt.Errorf("unknown NHX duplication value %q", value)
			}
		case "GN":
			node.SequenceName = value
		}
	}
	return nil
}

// Newick returns the tree in newick format. Branch lengths are written
// only when set.
func (node *Node) Newick() string {
	var sb strings.Builder
	node.writeNewick(&sb, false)
	sb.WriteString(";")
	return sb.String()
}

// NHX returns the tree in NHX format including taxonomy and events.
func (node *Node) NHX() string {
	var sb strings.Builder
	node.writeNewick(&sb, true)
	sb.WriteString(";")
	return sb.String()
}

func (node *Node) writeNewick(sb *strings.Builder, nhx bool) {
	if !node.IsTerminal() {
		sb.WriteString("(")
		for i, child := range node.childNodes {
			if i > 0 {
				sb.WriteString(",")
			}
			child.writeNewick(sb, nhx)
		}
		sb.WriteString(")")
	}
	sb.WriteString(quoteName(node.Name))
	if node.BranchLength != 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.FormatFloat(node.BranchLength, 'g', -1, 64))
	}
	if nhx {
		sb.WriteString(node.nhxTags())
	}
}

func (node *Node) nhxTags() string {
	var tags []string
	if node.SequenceName != "" {
		tags = append(tags, "GN="+node.SequenceName)
	}
	if tax := node.Taxonomy; tax != nil {
		if tax.Code != "" {
			tags = append(tags, "S="+tax.Code)
		} else if tax.ScientificName != "" {
			tags = append(tags, "S="+tax.ScientificName)
		}
		if tax.ID != "" {
			tags = append(tags, "T="+tax.ID)
		}
	}
	switch node.Event {
	case Duplication:
		tags = append(tags, "D=Y")
	case Speciation:
		tags = append(tags, "D=N")
	case SpeciationOrDuplication:
		tags = append(tags, "D=?")
	}
	if len(tags) == 0 {
		return ""
	}
	return "[&&NHX:" + strings.Join(tags, ":") + "]"
}

func quoteName(name string) string {
	if strings.IndexFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || IsSpecial(r)
	}) >= 0 {
		return "'" + strings.ReplaceAll(name, "'", "") + "'"
	}
	return name
}
