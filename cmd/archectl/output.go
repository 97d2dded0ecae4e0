package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"arche/internal/client"
	"arche/internal/models"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printSavoirs(page client.SavoirPage) {
	rows := make([][]string, 0, len(page.Data))
	for _, s := range page.Data {
		rows = append(rows, []string{
			s.ID, truncate(s.Title, 40), s.Category, s.Era,
			fmt.Sprint(s.VotesCount), fmt.Sprintf("%d%%", s.ApprovalRate), fmt.Sprint(s.ViewsCount),
		})
	}
	printTable([]string{"ID", "TITLE", "CATEGORY", "ERA", "VOTES", "APPROVAL", "VIEWS"}, rows)
	if page.Total > int64(len(page.Data)) {
		fmt.Printf("%d of %d\n", len(page.Data), page.Total)
	}
}

func printSavoir(s models.Savoir) {
	author := s.ContributorID
	if s.Contributor != nil {
		author = s.Contributor.Username
	}
	printKV([][2]string{
		{"id", s.ID},
		{"slug", s.Slug},
		{"title", s.Title},
		{"category", s.Category},
		{"era", s.Era},
		{"region", s.Region},
		{"tags", strings.Join(s.Tags, ", ")},
		{"by", author},
		{"votes", fmt.Sprintf("%d (%d%%)", s.VotesCount, s.ApprovalRate)},
		{"views", fmt.Sprint(s.ViewsCount)},
		{"created", formatTime(s.CreatedAt)},
	})
	fmt.Println()
	fmt.Println(s.Excerpt)
	fmt.Println()
	fmt.Println(s.Content)
}

func commentAuthor(c *models.Comment) string {
	if c.User != nil {
		return c.User.Username
	}
	return c.UserID
}

func printComments(comments []models.Comment) {
	if len(comments) == 0 {
		fmt.Println("no comments")
		return
	}
	for i := range comments {
		c := &comments[i]
		fmt.Printf("%s  %s  %s\n", formatTime(c.CreatedAt), commentAuthor(c), c.Content)
		for _, r := range c.Replies {
			fmt.Printf("    %s  %s  %s\n", formatTime(r.CreatedAt), commentAuthor(r), r.Content)
		}
	}
}

func printProfile(p models.ProfileWithStats) {
	printKV([][2]string{
		{"id", p.ID},
		{"username", p.Username},
		{"name", p.FullName},
		{"region", p.Region},
		{"reputation", fmt.Sprintf("%d (%s)", p.ReputationScore, p.Tier)},
		{"badges", strings.Join(p.Badges, ", ")},
		{"savoirs", fmt.Sprint(p.Stats.SavoirsCount)},
		{"followers", fmt.Sprint(p.Stats.FollowersCount)},
		{"following", fmt.Sprint(p.Stats.FollowingCount)},
	})
}

func printProfiles(items []models.Profile) {
	rows := make([][]string, 0, len(items))
	for i, p := range items {
		rows = append(rows, []string{fmt.Sprint(i + 1), p.Username, p.FullName, fmt.Sprint(p.ReputationScore)})
	}
	printTable([]string{"#", "USERNAME", "NAME", "REPUTATION"}, rows)
}

func printActivities(items []models.Activity) {
	if len(items) == 0 {
		fmt.Println("no results")
		return
	}
	for _, a := range items {
		printActivityLine(a)
	}
}

func printActivityLine(a models.Activity) {
	who := a.UserID
	if a.User != nil {
		who = a.User.Username
	}
	line := fmt.Sprintf("%s  %s  %s", formatTime(a.CreatedAt), who, a.ActivityType)
	if title, ok := a.Metadata["title"].(string); ok && title != "" {
		line += "  " + title
	}
	fmt.Println(line)
}

func printFlags(raw map[string]string, evaluated map[string]bool) {
	names := make([]string, 0, len(evaluated))
	for name := range evaluated {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, raw[name], fmt.Sprint(evaluated[name])})
	}
	printTable([]string{"FLAG", "RAW", "ENABLED"}, rows)
}

// printFieldErrors lists per-field validation messages on stderr.
func printFieldErrors(err error) {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return
	}
	fields := make([]string, 0, len(apiErr.Fields))
	for f := range apiErr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", f, apiErr.Fields[f])
	}
}
