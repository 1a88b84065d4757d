package config

import "encoding/json"

// jsonNode mirrors Config for JSON (de)serialization, preserving
// child order and the isNumber hint so the round-trip set -> emit ->
// parse -> compare-by-structure is lossless, per §4.1.
type jsonNode struct {
	Key      string     `json:"key"`
	Value    string     `json:"value,omitempty"`
	Referrer string     `json:"referrer,omitempty"`
	IsNumber bool       `json:"isNumber,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func (c *Config) toJSONNode() jsonNode {
	node := jsonNode{
		Key:      c.key,
		Value:    c.value,
		Referrer: c.referrer,
		IsNumber: c.isNumber,
	}
	for _, child := range c.children {
		node.Children = append(node.Children, child.toJSONNode())
	}
	return node
}

func fromJSONNode(node jsonNode) *Config {
	c := &Config{
		key:      node.Key,
		value:    node.Value,
		referrer: node.Referrer,
		isNumber: node.IsNumber,
	}
	for _, childNode := range node.Children {
		c.AddChild(fromJSONNode(childNode))
	}
	return c
}

// ToJSON serializes the Config subtree, preserving child order.
func (c *Config) ToJSON() ([]byte, error) {
	return json.Marshal(c.toJSONNode())
}

// FromJSON parses a Config subtree previously produced by ToJSON.
func FromJSON(data []byte) (*Config, error) {
	var node jsonNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return fromJSONNode(node), nil
}

// Equal compares two Config trees structurally: same key, value,
// isNumber hint, and children in the same order (referrer is
// intentionally excluded since it is resolution context, not content).
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.key != other.key || c.value != other.value || c.isNumber != other.isNumber {
		return false
	}
	if len(c.children) != len(other.children) {
		return false
	}
	for i, child := range c.children {
		if !child.Equal(other.children[i]) {
			return false
		}
	}
	return true
}
