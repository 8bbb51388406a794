// 假的 GPM 和代理行情端点，本地调面板时用，不碰真浏览器。
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

func main() {
	addr := flag.String("addr", ":19995", "listen address")
	flag.Parse()

	var (
		mu       sync.Mutex
		profiles = map[string]bool{}
		seq      int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/mock/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/v3/profiles/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		seq++
		id := fmt.Sprintf("mock-profile-%04d", seq)
		profiles[id] = false
		mu.Unlock()

		writeJSON(w, map[string]any{
			"success": true,
			"data":    map[string]any{"id": id},
		})
	})

	mux.HandleFunc("/api/v3/profiles/start/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v3/profiles/start/")
		mu.Lock()
		_, known := profiles[id]
		if known {
			profiles[id] = true
		}
		mu.Unlock()
		if !known {
			writeJSON(w, map[string]any{"success": false, "message": "profile not found"})
			return
		}
		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"profile_id":               id,
				"remote_debugging_address": "127.0.0.1:" + strconv.Itoa(9222+rand.Intn(100)),
				"browser_location":         "C:\\mock\\chrome.exe",
			},
		})
	})

	mux.HandleFunc("/api/v3/profiles/stop/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v3/profiles/stop/")
		mu.Lock()
		_, known := profiles[id]
		if known {
			profiles[id] = false
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"success": known})
	})

	mux.HandleFunc("/api/proxy", func(w http.ResponseWriter, r *http.Request) {
		num, _ := strconv.Atoi(r.URL.Query().Get("num"))
		if num <= 0 {
			num = 1
		}
		data := make([]string, 0, num)
		for i := 0; i < num; i++ {
			data = append(data, fmt.Sprintf("10.0.%d.%d:%d", rand.Intn(255), rand.Intn(255), 20000+rand.Intn(10000)))
		}
		writeJSON(w, map[string]any{"success": true, "data": data})
	})

	log.Printf("mock gpm+proxy listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
