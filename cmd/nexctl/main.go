package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type submitResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type agentSummary struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
	QueueLength  int      `json:"queue_length"`
	Completed    int      `json:"completed"`
	Failed       int      `json:"failed"`
}

var client = &http.Client{Timeout: 30 * time.Second}

func apiURL(path string) string {
	base := os.Getenv("NEXORD_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return strings.TrimRight(base, "/") + path
}

func get(path string, out any) error {
	resp, err := client.Get(apiURL(path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func post(path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := client.Post(apiURL(path), "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseArgs(args []string) map[string]string {
	result := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if len(args[i]) > 2 && args[i][:2] == "--" && i+1 < len(args) {
			result[args[i][2:]] = args[i+1]
			i++
		}
	}
	return result
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, `  nexctl submit --type "..." --requirements "cap1,cap2" [--input '{"k":"v"}'] [--priority N]`)
	fmt.Fprintln(os.Stderr, "  nexctl tasks")
	fmt.Fprintln(os.Stderr, "  nexctl agents")
	fmt.Fprintln(os.Stderr, `  nexctl coordinate [--mode collaborative|competitive|hybrid] [--agents "id1,id2"]`)
	fmt.Fprintln(os.Stderr, "  nexctl status")
	os.Exit(1)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	command := os.Args[1]
	rest := os.Args[2:]

	switch command {
	case "submit":
		args := parseArgs(rest)
		if args["type"] == "" || args["requirements"] == "" {
			fatal("--type and --requirements are required")
		}

		input := map[string]any{"source": "nexctl"}
		if args["input"] != "" {
			if err := json.Unmarshal([]byte(args["input"]), &input); err != nil {
				fatal("bad --input JSON: %v", err)
			}
		}
		priority := 5
		if args["priority"] != "" {
			p, err := strconv.Atoi(args["priority"])
			if err != nil {
				fatal("bad --priority: %v", err)
			}
			priority = p
		}

		var resp submitResponse
		err := post("/api/tasks", map[string]any{
			"type":         args["type"],
			"requirements": strings.Split(args["requirements"], ","),
			"input":        input,
			"priority":     priority,
		}, &resp)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Task submitted: %s\n", resp.ID)

	case "tasks":
		var tasks []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Priority int    `json:"priority"`
			Status   string `json:"status"`
		}
		if err := get("/api/tasks", &tasks); err != nil {
			fatal("%v", err)
		}
		if len(tasks) == 0 {
			fmt.Println("Queue is empty.")
			return
		}
		for _, t := range tasks {
			fmt.Printf("  %s  p%d  %s  [%s]\n", t.ID, t.Priority, t.Type, t.Status)
		}

	case "agents":
		var agents []agentSummary
		if err := get("/api/agents", &agents); err != nil {
			fatal("%v", err)
		}
		if len(agents) == 0 {
			fmt.Println("No agents registered.")
			return
		}
		for _, a := range agents {
			fmt.Printf("  %s  %s  %s  load=%d  done=%d  failed=%d  caps=%s\n",
				a.ID, a.Type, a.Status, a.QueueLength, a.Completed, a.Failed,
				strings.Join(a.Capabilities, ","))
		}

	case "coordinate":
		args := parseArgs(rest)
		payload := map[string]any{}
		if args["mode"] != "" {
			payload["mode"] = args["mode"]
		}
		if args["agents"] != "" {
			payload["agent_ids"] = strings.Split(args["agents"], ",")
		}

		var result struct {
			ID            string  `json:"id"`
			CombinedValue float64 `json:"combined_value"`
			Success       bool    `json:"success"`
			Error         string  `json:"error"`
		}
		if err := post("/api/coordinate", payload, &result); err != nil {
			fatal("%v", err)
		}
		if !result.Success {
			fatal("coordination failed: %s", result.Error)
		}
		fmt.Printf("Coordination %s: combined value %.4f\n", result.ID, result.CombinedValue)

	case "status":
		var status map[string]any
		if err := get("/api/status", &status); err != nil {
			fatal("%v", err)
		}
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))

	default:
		usage()
	}
}
