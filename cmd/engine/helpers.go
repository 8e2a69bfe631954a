package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"leasingedge-engine/internal/report"
	"leasingedge-engine/internal/rollup"
)

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownHandler(token *string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(*token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}

func parseBedsFlag(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 4 {
			return nil, fmt.Errorf("bedroom count %q must be 0-4", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// printReport writes the summary followed by the three rollup tables.
func printReport(w io.Writer, r *report.Report) {
	fmt.Fprintf(w, "Prospect %d  %s  (%s)\nAs of %s  model %s\n\n",
		r.Prospect.ID, r.Prospect.FullName, r.Prospect.HellodataProperty, r.AsOf, r.Model)
	fmt.Fprintln(w, r.SummaryEscaped)

	for _, v := range []struct {
		title string
		rows  []rollup.DisplayRow
	}{
		{"Average", r.Display.Average},
		{"Minimum", r.Display.Minimum},
		{"Maximum", r.Display.Largest},
	} {
		fmt.Fprintf(w, "\n%s\n", v.title)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "BEDS\tINTERNAL\tPROPERTY\tGROSS PRICE\tSQFT\tUNITS")
		for _, row := range v.rows {
			fmt.Fprintf(tw, "%d\t%t\t%s\t%s\t%d\t%d\n",
				row.Beds, row.Internal, row.Property, row.GrossPrice, row.Sqft, row.AvailableUnits)
		}
		_ = tw.Flush()
	}
}
