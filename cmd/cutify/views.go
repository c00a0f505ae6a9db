package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cutify/internal/generation"
	"cutify/internal/ipc"
	"cutify/internal/journal"
	"cutify/internal/model"
	"cutify/internal/services"
)

var labelCaser = cases.Title(language.English)

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(strings.ToLower(status), "_", " "))
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func buildOperationRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), strconv.Itoa(stats[key])})
	}
	return rows
}

func buildProjectRows(projects []ipc.ProjectSummary) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		marker := ""
		if p.Current {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Genre,
			formatStatusLabel(p.Status),
			strconv.Itoa(p.Scenes),
		})
	}
	return rows
}

// buildSceneRows renders scenes in sequence order with 1-based positions.
// Scenes with a running generation are marked with its kind.
func buildSceneRows(p *model.Project, running []generation.Entry) [][]string {
	if p == nil {
		return nil
	}
	inFlight := make(map[int64]string, len(running))
	for _, entry := range running {
		if entry.SceneID != 0 {
			inFlight[entry.SceneID] = formatStatusLabel(entry.Kind)
		}
	}
	rows := make([][]string, 0, len(p.Scenes))
	for i, s := range p.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(s.ID, 10),
			s.Title,
			formatStatusLabel(string(s.Status)),
			characterNames(p, s),
			locationName(p, s),
			strconv.Itoa(len(s.Shots)),
			inFlight[s.ID],
		})
	}
	return rows
}

func characterNames(p *model.Project, s model.Scene) string {
	names := make([]string, 0, len(s.CharacterIDs))
	for _, id := range s.CharacterIDs {
		if c, ok := p.Character(id); ok {
			names = append(names, c.Name)
		}
	}
	return strings.Join(names, ", ")
}

func locationName(p *model.Project, s model.Scene) string {
	if s.LocationID == nil {
		return ""
	}
	if l, ok := p.Location(*s.LocationID); ok {
		return l.Name
	}
	return ""
}

func buildCharacterRows(chars []model.Character) [][]string {
	rows := make([][]string, 0, len(chars))
	for _, c := range chars {
		rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, c.Traits, yesNo(c.ImageURL != "")})
	}
	return rows
}

func buildLocationRows(locs []model.Location) [][]string {
	rows := make([][]string, 0, len(locs))
	for _, l := range locs {
		rows = append(rows, []string{strconv.FormatInt(l.ID, 10), l.Name, l.Ambiance, yesNo(l.ImageURL != "")})
	}
	return rows
}

func buildJournalRows(entries []journal.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortOpID(e.ID),
			strconv.FormatInt(e.ProjectID, 10),
			formatStatusLabel(e.Kind),
			strings.Join(e.Targets, " "),
			formatStatusLabel(e.Outcome),
			formatDisplayTime(e.UpdatedAt),
			e.Error,
		})
	}
	return rows
}

func buildFailureRows(failures []services.Failure) [][]string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		scene := ""
		if f.SceneID != 0 {
			scene = strconv.FormatInt(f.SceneID, 10)
		}
		rows = append(rows, []string{
			formatDisplayTime(f.At),
			formatStatusLabel(f.Kind),
			scene,
			f.Message,
			yesNo(f.Retryable),
		})
	}
	return rows
}

func shortOpID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func buildAILogRows(logs []model.AILog) [][]string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		when := ""
		if l.Timestamp > 0 {
			sec := int64(l.Timestamp)
			when = formatDisplayTime(time.Unix(sec, int64((l.Timestamp-float64(sec))*1e9)))
		}
		detail := l.Prompt
		if l.Failed() && l.Error != "" {
			detail = l.Error
		}
		rows = append(rows, []string{
			shortOpID(l.ID),
			when,
			formatStatusLabel(l.Service),
			formatStatusLabel(l.Status),
			clipText(detail, 60),
		})
	}
	return rows
}

// clipText flattens s to one line of at most n runes.
func clipText(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
