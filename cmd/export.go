package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/model"
	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportStatus string
	exportBOM    bool
)

// taskRow is one CSV line of the follow-up task export
type taskRow struct {
	ID              int64  `csv:"id"`
	LawCode         string `csv:"law_code"`
	AmendmentDate   string `csv:"amendment_date"`
	TaskType        string `csv:"task_type"`
	TaskTitle       string `csv:"task_title"`
	TaskDescription string `csv:"task_description"`
	Priority        string `csv:"priority"`
	Assignee        string `csv:"assignee"`
	DueDate         string `csv:"due_date"`
	Status          string `csv:"status"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export follow-up tasks as CSV",
	Long: `Export writes follow-up tasks, joined with the statute and amendment date
they came from, as CSV.

Examples:
  # Export pending tasks to a file
  ./lawwatch export --out tasks.csv --status pending

  # Export every task to stdout
  ./lawwatch export`,
	Run: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, - for stdout")
	exportCmd.Flags().StringVarP(&exportStatus, "status", "s", "", "Only export tasks with this status")
	exportCmd.Flags().BoolVar(&exportBOM, "bom", false, "Prefix a UTF-8 byte order mark for spreadsheet tools")
}

func runExport(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatal("failed to start", "err", err)
	}
	defer a.Close()

	tasks, err := a.tasks.ListForExport(context.Background(), exportStatus)
	if err != nil {
		a.logger.Fatal("failed to load tasks", "err", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			a.logger.Fatal("failed to create output file", "path", exportOut, "err", err)
		}
		defer f.Close()
		w = f
	}

	if exportBOM {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			a.logger.Fatal("failed to write output", "err", err)
		}
	}
	if err := writeTasksCSV(w, tasks); err != nil {
		a.logger.Fatal("failed to write CSV", "err", err)
	}

	a.logger.Info("exported follow-up tasks", "count", len(tasks), "out", exportOut)
}

func writeTasksCSV(w io.Writer, tasks []model.TaskExport) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(taskRow{}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range tasks {
		row := taskRow{
			ID:              t.ID,
			LawCode:         t.LawCode,
			AmendmentDate:   t.AmendmentDate.Format(time.DateOnly),
			TaskType:        string(t.TaskType),
			TaskTitle:       t.TaskTitle,
			TaskDescription: t.TaskDescription,
			Priority:        t.Priority,
			Assignee:        t.Assignee,
			DueDate:         t.DueDate.Format(time.DateOnly),
			Status:          t.Status,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode task %d: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
