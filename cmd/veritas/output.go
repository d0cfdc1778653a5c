package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
	hashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func heading(s string) string {
	return headingStyle.Render(s)
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-9s", label+":")), value)
}

// readJSONInput decodes a JSON document from path, or stdin when path is "-".
func readJSONInput(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJSONOutput writes v as indented JSON to path, or stdout when path is "" or "-".
func writeJSONOutput(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// unwrapList accepts either a bare JSON array or an object holding the array
// under one of keys.
func unwrapList(raw json.RawMessage, v interface{}, keys ...string) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("expected a JSON array or object")
	}
	for _, k := range keys {
		if inner, ok := obj[k]; ok {
			return json.Unmarshal(inner, v)
		}
	}
	return fmt.Errorf("expected a JSON array or an object with one of %v", keys)
}
