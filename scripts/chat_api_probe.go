package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:4040"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout, model calls can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Chat API Probe\n")

	// 1. Health
	color.Yellow("\n1. Health Check")
	resp, body, err := sendRequest("GET", "/", nil)
	if err != nil {
		color.Red("Failed: %v (is the server running?)", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var healthResp map[string]interface{}
	json.Unmarshal(body, &healthResp)
	prettyPrint(healthResp)

	sessionID := "probe-session"

	// 2. General chat message
	color.Yellow("\n2. Send General Chat Message")
	resp, body, err = sendRequest("POST", "/chat/"+sessionID+"/message", map[string]interface{}{
		"message": "Hello! What can you do?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var chatResp map[string]interface{}
	json.Unmarshal(body, &chatResp)
	prettyPrint(chatResp)

	// 3. Data question
	color.Yellow("\n3. Send Data Question")
	resp, body, err = sendRequest("POST", "/chat/"+sessionID+"/message", map[string]interface{}{
		"message": "How many records are there in the data?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var dataResp map[string]interface{}
	json.Unmarshal(body, &dataResp)
	prettyPrint(dataResp)

	// 4. Fetch the timeline (welcome + 2 exchanges expected)
	color.Yellow("\n4. Get Messages")
	resp, body, err = sendRequest("GET", "/chat/"+sessionID+"/messages", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var messagesResp map[string]interface{}
	json.Unmarshal(body, &messagesResp)
	prettyPrint(messagesResp)

	// 5. List sessions
	color.Yellow("\n5. List Sessions")
	resp, body, err = sendRequest("GET", "/chat/sessions", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var sessionsResp map[string]interface{}
	json.Unmarshal(body, &sessionsResp)
	prettyPrint(sessionsResp)

	// 6. Delete the session
	color.Yellow("\n6. Delete Session")
	resp, body, err = sendRequest("DELETE", "/chat/"+sessionID, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var deleteResp map[string]interface{}
	json.Unmarshal(body, &deleteResp)
	prettyPrint(deleteResp)

	// 7. Delete again, expecting 404
	color.Yellow("\n7. Delete Again (expect 404)")
	resp, body, err = sendRequest("DELETE", "/chat/"+sessionID, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode == http.StatusNotFound {
		color.Green("Status: %s (as expected)", resp.Status)
	} else {
		color.Red("Status: %s (expected 404)", resp.Status)
	}
	var repeatResp map[string]interface{}
	json.Unmarshal(body, &repeatResp)
	prettyPrint(repeatResp)

	color.Cyan("\n✅ Probe finished")
}
