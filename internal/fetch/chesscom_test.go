package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient(zerolog.Nop())
	c.baseURL = srv.URL
	c.http = srv.Client()
	return c
}

func TestArchives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player/alice/games/archives" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		fmt.Fprintf(w, `{"archives":["%s/player/alice/games/2024/01","%s/player/alice/games/2024/02"]}`,
			r.Host, r.Host)
	}))
	defer srv.Close()

	got, err := testClient(srv).Archives(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Archives: %v", err)
	}
	if len(got) != 2 || !strings.HasSuffix(got[0], "/2024/01") {
		t.Errorf("Archives = %v, want two monthly URLs", got)
	}
}

func TestArchivesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such player", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).Archives(context.Background(), "ghost")
	if err == nil {
		t.Fatal("Archives succeeded, want error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestArchiveGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"games": []map[string]string{
				{"pgn": "1. e4 e5"},
				{"pgn": ""}, // variant game without PGN
				{"pgn": "1. d4 d5"},
			},
		})
	}))
	defer srv.Close()

	got, err := testClient(srv).ArchiveGames(context.Background(), srv.URL+"/player/alice/games/2024/01")
	if err != nil {
		t.Fatalf("ArchiveGames: %v", err)
	}
	want := []string{"1. e4 e5", "1. d4 d5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ArchiveGames = %v, want %v", got, want)
	}
}

func TestAllGames(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/player/alice/games/archives", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"archives":["%s/m/1","%s/m/2","%s/m/3"]}`, srv.URL, srv.URL, srv.URL)
	})
	mux.HandleFunc("/m/", func(w http.ResponseWriter, r *http.Request) {
		month := strings.TrimPrefix(r.URL.Path, "/m/")
		if month == "2" {
			// one broken archive must not sink the rest
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"games":[{"pgn":"game-%s-a"},{"pgn":"game-%s-b"}]}`, month, month)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	got, err := testClient(srv).AllGames(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("AllGames: %v", err)
	}

	// Archive order is preserved regardless of fetch concurrency.
	want := []string{"game-1-a", "game-1-b", "game-3-a", "game-3-b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllGames = %v, want %v", got, want)
	}
}
