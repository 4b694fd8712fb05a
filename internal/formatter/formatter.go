// package formatter renders facade results (tracks, sets, followings, users, images)
// as a terminal table, JSON, CSV, Markdown or plain text.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Formats lists every supported format, in help order.
var Formats = []Format{Table, JSON, CSV, Markdown, Text}

// ParseFormat maps a flag value to a Format. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Sheet is the tabular form every renderer works from.
//
// Value is what JSON encodes; line, when set, renders one row for plain text and Markdown lists.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
	Value   any
	line    func(row []string) string
}

// Write renders s to w in format f.
func Write(w io.Writer, f Format, s Sheet) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case Table, "":
		data = []byte(RenderTable(s) + "\n")
	case JSON:
		data, err = shared.MarshalJSON(s.Value, true)
		data = append(data, '\n')
	case CSV:
		data, err = ExportToCSV(s)
	case Markdown:
		data = ExportToMarkdown(s)
	case Text:
		data = ExportToText(s)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// RenderTable draws s with a rounded lipgloss border and a styled header row.
func RenderTable(s Sheet) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.border).
		Headers(s.Headers...).
		Rows(s.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		})

	if s.Title == "" {
		return t.String()
	}
	return styles.title.Render(s.Title) + "\n" + t.String()
}

// ExportToCSV writes the header row followed by every data row.
func ExportToCSV(s Sheet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(s.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range s.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, an item count and either a numbered list or a pipe table.
func ExportToMarkdown(s Sheet) []byte {
	var buf bytes.Buffer

	if s.Title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", s.Title)
	}
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(s.Rows))

	if s.line != nil {
		for i, row := range s.Rows {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, s.line(row))
		}
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "| %s |\n", strings.Join(s.Headers, " | "))
	seps := make([]string, len(s.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(&buf, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range s.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		fmt.Fprintf(&buf, "| %s |\n", strings.Join(cells, " | "))
	}
	return buf.Bytes()
}

// ExportToText renders the title and one numbered line per row.
func ExportToText(s Sheet) []byte {
	var buf bytes.Buffer

	if s.Title != "" {
		fmt.Fprintf(&buf, "%s\n", s.Title)
	}
	fmt.Fprintf(&buf, "Items: %d\n\n", len(s.Rows))

	for i, row := range s.Rows {
		line := strings.Join(row, "  ")
		if s.line != nil {
			line = s.line(row)
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}
	return buf.Bytes()
}

// Tracks builds a sheet of parsed tracks.
func Tracks(title string, tracks []models.Track) Sheet {
	if tracks == nil {
		tracks = []models.Track{}
	}

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		album := ""
		if t.Album != nil {
			album = t.Album.Name
		}
		rows = append(rows, []string{t.ArtistName(), t.Name, album, shared.FormatDuration(t.Length), t.URI})
	}

	return Sheet{
		Title:   title,
		Headers: []string{"Artist", "Title", "Album", "Length", "URI"},
		Rows:    rows,
		Value:   tracks,
		line: func(row []string) string {
			album := ""
			if row[2] != "" {
				album = fmt.Sprintf(" (%s)", row[2])
			}
			return fmt.Sprintf("%s - %s%s [%s]", row[0], row[1], album, row[3])
		},
	}
}

// Sets builds a sheet of the user's sets with their track counts.
func Sets(title string, sets []models.Set) Sheet {
	if sets == nil {
		sets = []models.Set{}
	}

	rows := make([][]string, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(len(s.Tracks))})
	}

	return Sheet{
		Title:   title,
		Headers: []string{"ID", "Name", "Tracks"},
		Rows:    rows,
		Value:   sets,
		line: func(row []string) string {
			return fmt.Sprintf("%s [%s] (%s tracks)", row[1], row[0], row[2])
		},
	}
}

// Followings builds a sheet of followed users.
func Followings(title string, followings []models.Following) Sheet {
	if followings == nil {
		followings = []models.Following{}
	}

	rows := make([][]string, 0, len(followings))
	for _, f := range followings {
		rows = append(rows, []string{f.ID, f.Name})
	}

	return Sheet{
		Title:   title,
		Headers: []string{"ID", "Name"},
		Rows:    rows,
		Value:   followings,
		line: func(row []string) string {
			return fmt.Sprintf("%s [%s]", row[1], row[0])
		},
	}
}

// User builds a one-row sheet for the authenticated user. A nil user yields no rows.
func User(user *models.User) Sheet {
	s := Sheet{
		Title:   "User",
		Headers: []string{"ID", "Username"},
		Rows:    [][]string{},
		Value:   user,
	}
	if user != nil {
		s.Rows = append(s.Rows, []string{user.ID, user.Username})
	}
	return s
}

// Images builds a sheet with one row per image, grouped by URI in sorted order.
func Images(images map[string][]models.Image) Sheet {
	if images == nil {
		images = map[string][]models.Image{}
	}

	uris := make([]string, 0, len(images))
	for uri := range images {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	rows := [][]string{}
	for _, uri := range uris {
		for _, img := range images[uri] {
			size := fmt.Sprintf("%dx%d", img.Width, img.Height)
			rows = append(rows, []string{uri, img.URI, size})
		}
	}

	return Sheet{
		Title:   "Images",
		Headers: []string{"URI", "Image", "Size"},
		Rows:    rows,
		Value:   images,
	}
}
