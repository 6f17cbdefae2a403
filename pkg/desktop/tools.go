package desktop

import (
	"fmt"

	"github.com/vbharat/go-buddy/pkg/live"
)

// Tools returns the companion's desktop tool set backed by the given
// provider. Failures come back as readable strings so the model can
// explain the problem in conversation instead of going silent.
func Tools(p *Provider) []live.Tool {
	return []live.Tool{
		{
			Name:        "listFiles",
			Description: "Lists files in a specific directory or the Desktop by default.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"dirPath": map[string]any{
						"type":        "STRING",
						"description": "The path of the directory to list files from. If omitted, uses Desktop.",
					},
				},
			},
			Handler: func(args map[string]any) (string, error) {
				dirPath, _ := args["dirPath"].(string)
				result, err := p.ListFiles(dirPath)
				if err != nil {
					return fmt.Sprintf("Error: %v", err), nil
				}
				return result, nil
			},
		},
		{
			Name:        "readFile",
			Description: "Reads the text content of a file.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"filePath": map[string]any{
						"type":        "STRING",
						"description": "The full path to the text/code file to read.",
					},
				},
				"required": []string{"filePath"},
			},
			Handler: func(args map[string]any) (string, error) {
				filePath, _ := args["filePath"].(string)
				result, err := p.ReadFile(filePath)
				if err != nil {
					return fmt.Sprintf("Error reading file: %v", err), nil
				}
				return result, nil
			},
		},
		{
			Name:        "openFile",
			Description: "Opens a file using the system default application.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"filePath": map[string]any{
						"type":        "STRING",
						"description": "The full path to the file to open.",
					},
				},
				"required": []string{"filePath"},
			},
			Handler: func(args map[string]any) (string, error) {
				filePath, _ := args["filePath"].(string)
				result, err := p.OpenFile(filePath)
				if err != nil {
					return fmt.Sprintf("Error opening file: %v", err), nil
				}
				return result, nil
			},
		},
		{
			Name:        "openBrowser",
			Description: "Opens a URL in the system default web browser.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "STRING",
						"description": "The full URL to open (e.g., https://www.google.com).",
					},
				},
				"required": []string{"url"},
			},
			Handler: func(args map[string]any) (string, error) {
				url, _ := args["url"].(string)
				result, err := p.OpenBrowser(url)
				if err != nil {
					return fmt.Sprintf("Error opening browser: %v", err), nil
				}
				return result, nil
			},
		},
	}
}
