// Command budgetbook is the ledger CLI: it records entries, imports bank
// statements, renders reports and manages mappings, balances and remote sync
// against a single budget document.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/remote"
	"budgetbook/internal/report"
	"budgetbook/internal/services"
)

func main() {
	boa.NewCmd("budgetbook").
		WithShort("Personal budget ledger").
		WithLong("budgetbook records income and expenses in a single budget document,\n" +
			"imports bank statement batches, renders monthly and annual reports and\n" +
			"keeps the document synchronized with an optional remote copy.").
		WithSubCmds(
			addCmd(),
			importCmd(),
			exportCmd(),
			reportCmd(),
			balanceCmd(),
			mappingsCmd(),
			noteCmd(),
			syncCmd(),
		).
		Run()
}

func fail(action string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	os.Exit(1)
}

// session bundles what every document-touching subcommand needs: the loaded
// config, an open ledger and the cleanups to run on the way out.
type session struct {
	ctx      context.Context
	logger   *slog.Logger
	cfg      *config.Config
	defaults core.Defaults
	led      *ledger.Ledger
	cleanups []func()
}

func openSession() *session {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.ConfigureLogger(cfg)

	s := &session{ctx: context.Background(), logger: logger, cfg: cfg}

	store := cli.InitStore(s.ctx, logger, cfg)
	if store.Cleanup != nil {
		closeStore := store.Cleanup
		s.cleanups = append(s.cleanups, func() {
			if err := closeStore(); err != nil {
				logger.Warn("Closing store failed", "error", err)
			}
		})
	}
	s.defaults = cli.LoadDefaults(logger)
	s.led = cli.OpenLedger(s.ctx, logger, store, cfg, s.defaults)

	// Saves announce themselves on the bus so a running budgetbook-sync
	// worker uploads right away instead of on its next poll. Best effort:
	// a dead broker never blocks recording an expense.
	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, save events will not be published", "error", err)
		} else {
			s.cleanups = append(s.cleanups, func() { _ = bus.Close() })
			s.led.AddSaveHook(func(ctx context.Context, snapshot *core.State) {
				if err := bus.PublishDocumentSaved(ctx, snapshot.Version, len(snapshot.Transactions)); err != nil {
					logger.Warn("Publishing save event failed", "error", err)
				}
			})
		}
	}
	return s
}

func (s *session) close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
}

// parseMonth accepts a month number or an English or Hebrew month name.
func parseMonth(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return n, nil
	}
	if n, ok := core.ResolveMonth(s); ok {
		return n, nil
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// resolvePeriod picks the period a command operates on: explicit flags win,
// then the document's last selection, then the wall clock.
func (s *session) resolvePeriod(month *string, year *int) core.Period {
	selMonth, selYear, _ := s.led.Selection()

	p := core.Period{Month: selMonth, Year: selYear}
	if p.Month == 0 {
		p.Month = int(time.Now().Month())
	}
	if p.Year == 0 {
		p.Year = s.led.CurrentYear()
	}
	if month != nil {
		m, err := parseMonth(*month)
		if err != nil {
			fail("resolving month", err)
		}
		p.Month = m
	}
	if year != nil {
		p.Year = *year
	}
	return p
}

type addParams struct {
	Item        string  `descr:"Item name" positional:"true"`
	Amount      float64 `descr:"Amount, sign is normalized to the entry type" positional:"true"`
	Month       *string `descr:"Month number or name (defaults to the last used month)"`
	Year        *int    `descr:"Year (defaults to the document's current year)"`
	Type        *string `descr:"Entry type (defaults to the item's classification)" alts:"income,expense,transfer" strict:"true"`
	Category    *string `descr:"Category to map a first-time item to"`
	Monthly     bool    `descr:"Count the item in monthly expense totals" default:"true"`
	Note        *string `descr:"Free-form note"`
	Color       *string `descr:"Visual tag color"`
	CheckNumber *string `descr:"Check number, marks the entry as paid by check"`
	Payee       *string `descr:"Payee name for check payments"`
}

func addCmd() *cobra.Command {
	return boa.NewCmdT[addParams]("add").
		WithShort("Record a transaction").
		WithRunFunc(func(p *addParams) {
			s := openSession()
			defer s.close()

			period := s.resolvePeriod(p.Month, p.Year)
			in := ledger.EntryInput{
				Item:   p.Item,
				Amount: p.Amount,
				Month:  period.Month,
				Year:   period.Year,
			}
			if p.Type != nil {
				in.Type = core.TransactionType(*p.Type)
			}
			if p.Note != nil {
				in.Note = *p.Note
			}
			if p.Color != nil {
				in.Color = *p.Color
			}
			if p.CheckNumber != nil {
				in.CheckNumber = *p.CheckNumber
			}
			if p.Payee != nil {
				in.PayeeName = *p.Payee
			}

			tx, err := s.led.AddEntry(s.ctx, in)
			if err != nil {
				fail("recording entry", err)
			}
			fmt.Printf("Recorded %s %.2f (%s) in %s %d\n",
				tx.Item, tx.Amount, tx.Category, core.MonthName(tx.Month), tx.Year)

			if tx.Category != core.CategoryUncategorized {
				return
			}
			if p.Category == nil {
				fmt.Printf("Item %q has no category mapping; rerun with --category to create one\n", tx.Item)
				return
			}
			updated, err := s.led.ConfirmMapping(s.ctx, tx.Item, *p.Category, p.Monthly)
			if err != nil {
				fail("saving mapping", err)
			}
			fmt.Printf("Mapped %q to %q, recategorized %d transaction(s)\n", tx.Item, *p.Category, updated)
		}).
		ToCmd()
}

type importParams struct {
	File   string  `descr:"CSV or Excel statement file" positional:"true"`
	Month  *string `descr:"Target month (Excel defaults to the statement's majority month)"`
	Year   *int    `descr:"Target year"`
	DryRun bool    `descr:"Validate and report without applying"`
}

func importCmd() *cobra.Command {
	return boa.NewCmdT[importParams]("import").
		WithShort("Import a bank statement batch").
		WithLong("Validates the whole batch against the target period and applies it\n" +
			"atomically: one structural error rejects every row and changes nothing.").
		WithRunFunc(func(p *importParams) {
			s := openSession()
			defer s.close()

			var (
				rows   []reconcile.Row
				target core.Period
			)
			switch strings.ToLower(filepath.Ext(p.File)) {
			case ".xlsx", ".xlsm":
				var (
					rep reconcile.IngestReport
					err error
				)
				rows, rep, err = reconcile.IngestExcel(p.File)
				if err != nil {
					fail("reading workbook", err)
				}
				report.RenderIngest(os.Stdout, rep)
				target = core.Period{Year: rep.Year, Month: rep.Month}
				if p.Month != nil {
					m, err := parseMonth(*p.Month)
					if err != nil {
						fail("resolving month", err)
					}
					target.Month = m
				}
				if p.Year != nil {
					target.Year = *p.Year
				}
			default:
				data, err := os.ReadFile(p.File)
				if err != nil {
					fail("reading file", err)
				}
				rows, err = reconcile.ParseCSV(data)
				if err != nil {
					fail("parsing csv", err)
				}
				target = s.resolvePeriod(p.Month, p.Year)
			}

			snapshot := s.led.Snapshot()
			res, err := reconcile.Reconcile(rows, target, snapshot.Mappings, snapshot.IncomeItems)
			if err != nil {
				fail("reconciling batch", err)
			}

			if p.DryRun {
				report.RenderImport(os.Stdout, res, nil)
				return
			}
			merge, err := s.led.MergeImport(s.ctx, res.Transactions, res.CheckItems)
			if err != nil {
				fail("applying batch", err)
			}
			report.RenderImport(os.Stdout, res, &merge)
		}).
		ToCmd()
}

type exportParams struct {
	Month *string `descr:"Month to export (defaults to the last used month)"`
	Year  *int    `descr:"Year to export"`
	File  *string `descr:"Output path (defaults to stdout)"`
}

func exportCmd() *cobra.Command {
	return boa.NewCmdT[exportParams]("export").
		WithShort("Export one month's transactions as CSV").
		WithRunFunc(func(p *exportParams) {
			s := openSession()
			defer s.close()

			period := s.resolvePeriod(p.Month, p.Year)
			snapshot := s.led.Snapshot()
			currentYear := s.led.CurrentYear()

			var txs []core.Transaction
			for _, tx := range snapshot.Transactions {
				year := tx.Year
				if year == 0 {
					year = currentYear
				}
				if tx.Month == period.Month && year == period.Year {
					txs = append(txs, tx)
				}
			}

			data, err := reconcile.ExportCSV(txs)
			if err != nil {
				fail("rendering csv", err)
			}
			if p.File == nil {
				os.Stdout.Write(data)
				return
			}
			if err := os.WriteFile(*p.File, data, 0o644); err != nil {
				fail("writing file", err)
			}
			fmt.Printf("Exported %d transaction(s) to %s\n", len(txs), *p.File)
		}).
		ToCmd()
}

type reportParams struct {
	Kind  string  `descr:"Report to render" positional:"true" alts:"monthly,categories,annual,colors" strict:"true"`
	Month *string `descr:"Month (defaults to the last used month)"`
	Year  *int    `descr:"Year (defaults to the document's current year)"`
	JSON  bool    `descr:"Emit JSON instead of a table"`
}

func reportCmd() *cobra.Command {
	return boa.NewCmdT[reportParams]("report").
		WithShort("Render a report").
		WithRunFunc(func(p *reportParams) {
			s := openSession()
			defer s.close()

			period := s.resolvePeriod(p.Month, p.Year)
			snapshot := s.led.Snapshot()
			currentYear := s.led.CurrentYear()

			var view any
			switch p.Kind {
			case "monthly":
				m := report.Monthly(snapshot, period, currentYear)
				if !p.JSON {
					report.RenderMonthly(os.Stdout, m)
					return
				}
				view = m
			case "categories":
				b := report.Categories(snapshot, period, currentYear)
				if !p.JSON {
					report.RenderCategories(os.Stdout, b)
					return
				}
				view = b
			case "annual":
				g := report.Annual(snapshot, period.Year, currentYear)
				if !p.JSON {
					report.RenderAnnual(os.Stdout, g)
					return
				}
				view = g
			case "colors":
				sums := report.ColorSums(snapshot, period, currentYear)
				if !p.JSON {
					report.RenderColorSums(os.Stdout, period, sums)
					return
				}
				view = sums
			}
			if err := report.WriteJSON(os.Stdout, view); err != nil {
				fail("encoding report", err)
			}
		}).
		ToCmd()
}

type balanceParams struct {
	Month *string  `descr:"Month (defaults to the last used month)"`
	Year  *int     `descr:"Year"`
	Set   *float64 `descr:"Record a manual opening balance for the month"`
	Clear bool     `descr:"Remove the manual opening balance, falling back to the derived one"`
}

func balanceCmd() *cobra.Command {
	return boa.NewCmdT[balanceParams]("balance").
		WithShort("Show or override a month's opening balance").
		WithRunFunc(func(p *balanceParams) {
			if p.Set != nil && p.Clear {
				fail("updating balance", errors.New("--set and --clear are mutually exclusive"))
			}
			s := openSession()
			defer s.close()

			period := s.resolvePeriod(p.Month, p.Year)
			switch {
			case p.Set != nil:
				if err := s.led.SetOpeningBalance(s.ctx, period, *p.Set); err != nil {
					fail("setting opening balance", err)
				}
			case p.Clear:
				if err := s.led.ClearOpeningBalance(s.ctx, period); err != nil {
					fail("clearing opening balance", err)
				}
			}
			report.RenderMonthly(os.Stdout, report.Monthly(s.led.Snapshot(), period, s.led.CurrentYear()))
		}).
		ToCmd()
}

func mappingsCmd() *cobra.Command {
	return boa.NewCmd("mappings").
		WithShort("Manage item-to-category mappings").
		WithSubCmds(
			mappingsListCmd(),
			mappingsSetCmd(),
			mappingsDeleteCmd(),
			mappingsExportCmd(),
			mappingsImportCmd(),
		).
		ToCmd()
}

type mappingsListParams struct {
	JSON bool `descr:"Emit JSON instead of a table"`
}

func mappingsListCmd() *cobra.Command {
	return boa.NewCmdT[mappingsListParams]("list").
		WithShort("List mappings with their usage counts").
		WithRunFunc(func(p *mappingsListParams) {
			s := openSession()
			defer s.close()

			rows := report.Mappings(s.led.Snapshot())
			if p.JSON {
				if err := report.WriteJSON(os.Stdout, rows); err != nil {
					fail("encoding mappings", err)
				}
				return
			}
			report.RenderMappings(os.Stdout, rows)
		}).
		ToCmd()
}

type mappingsSetParams struct {
	Item     string `descr:"Item name" positional:"true"`
	Category string `descr:"Category name" positional:"true"`
	Monthly  bool   `descr:"Count the item in monthly expense totals" default:"true"`
}

func mappingsSetCmd() *cobra.Command {
	return boa.NewCmdT[mappingsSetParams]("set").
		WithShort("Create or update a mapping").
		WithRunFunc(func(p *mappingsSetParams) {
			s := openSession()
			defer s.close()

			m, err := s.led.SetMapping(s.ctx, p.Item, p.Category, p.Monthly)
			if err != nil {
				fail("saving mapping", err)
			}
			fmt.Printf("Mapped %q to %q\n", m.Item, m.Category)
		}).
		ToCmd()
}

type mappingsDeleteParams struct {
	Item string `descr:"Item name" positional:"true"`
}

func mappingsDeleteCmd() *cobra.Command {
	return boa.NewCmdT[mappingsDeleteParams]("delete").
		WithShort("Delete a mapping (refused while transactions still use it)").
		WithRunFunc(func(p *mappingsDeleteParams) {
			s := openSession()
			defer s.close()

			if err := s.led.DeleteMapping(s.ctx, p.Item); err != nil {
				fail("deleting mapping", err)
			}
			fmt.Printf("Deleted mapping for %q\n", p.Item)
		}).
		ToCmd()
}

type mappingsExportParams struct {
	File *string `descr:"Output path (defaults to stdout)"`
}

func mappingsExportCmd() *cobra.Command {
	return boa.NewCmdT[mappingsExportParams]("export").
		WithShort("Export mappings, categories and income items as JSON").
		WithRunFunc(func(p *mappingsExportParams) {
			s := openSession()
			defer s.close()

			data, err := s.led.ExportMappings()
			if err != nil {
				fail("exporting mappings", err)
			}
			if p.File == nil {
				os.Stdout.Write(data)
				return
			}
			if err := os.WriteFile(*p.File, data, 0o644); err != nil {
				fail("writing file", err)
			}
			fmt.Printf("Exported mappings to %s\n", *p.File)
		}).
		ToCmd()
}

type mappingsImportParams struct {
	File string `descr:"Mappings JSON file" positional:"true"`
}

func mappingsImportCmd() *cobra.Command {
	return boa.NewCmdT[mappingsImportParams]("import").
		WithShort("Merge an exported mappings document").
		WithRunFunc(func(p *mappingsImportParams) {
			s := openSession()
			defer s.close()

			data, err := os.ReadFile(p.File)
			if err != nil {
				fail("reading file", err)
			}
			rep, err := s.led.ImportMappings(s.ctx, data)
			if err != nil {
				fail("importing mappings", err)
			}
			fmt.Printf("Imported %d mapping(s), %d new categor(ies), %d new income item(s)\n",
				rep.Mappings, rep.Categories, rep.IncomeItems)
		}).
		ToCmd()
}

type noteParams struct {
	Month *string `descr:"Month (defaults to the last used month)"`
	Year  *int    `descr:"Year"`
	Set   *string `descr:"New note text (an empty string clears the note)"`
}

func noteCmd() *cobra.Command {
	return boa.NewCmdT[noteParams]("note").
		WithShort("Show or set a month's note").
		WithRunFunc(func(p *noteParams) {
			s := openSession()
			defer s.close()

			period := s.resolvePeriod(p.Month, p.Year)
			if p.Set == nil {
				note := s.led.MonthlyNote(period)
				if note == "" {
					fmt.Printf("No note for %s %d\n", core.MonthName(period.Month), period.Year)
					return
				}
				fmt.Println(note)
				return
			}
			if err := s.led.SetMonthlyNote(s.ctx, period, *p.Set); err != nil {
				fail("saving note", err)
			}
			if *p.Set == "" {
				fmt.Printf("Cleared note for %s %d\n", core.MonthName(period.Month), period.Year)
				return
			}
			fmt.Printf("Saved note for %s %d\n", core.MonthName(period.Month), period.Year)
		}).
		ToCmd()
}

func syncCmd() *cobra.Command {
	return boa.NewCmd("sync").
		WithShort("Synchronize the document with the remote store").
		WithSubCmds(syncOnceCmd(), syncCheckCmd()).
		ToCmd()
}

type syncOnceParams struct{}

func syncOnceCmd() *cobra.Command {
	return boa.NewCmdT[syncOnceParams]("once").
		WithShort("Run one converge cycle: pull a newer remote document, then upload").
		WithRunFunc(func(_ *syncOnceParams) {
			s := openSession()
			defer s.close()

			blob, closeBlob, ok := cli.InitRemote(s.ctx, s.logger, s.cfg)
			if !ok {
				fail("syncing", errors.New("no remote provider configured (set REMOTE_PROVIDER)"))
			}
			defer closeBlob()

			syncer := services.NewBlobSyncer(s.led, blob, s.defaults, services.SyncerConfig{
				PollInterval: s.cfg.SyncInterval,
			})
			if err := syncer.Poll(s.ctx); err != nil {
				fail("syncing", err)
			}
			if err := syncer.UploadNow(s.ctx); err != nil {
				fail("uploading document", err)
			}
			fmt.Println("Document synchronized")
		}).
		ToCmd()
}

type syncCheckParams struct{}

func syncCheckCmd() *cobra.Command {
	return boa.NewCmdT[syncCheckParams]("check").
		WithShort("Verify remote credentials and show the remote document's metadata").
		WithRunFunc(func(_ *syncCheckParams) {
			// No store or ledger needed, the check only talks to the provider.
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)
			logger = cli.ConfigureLogger(cfg)

			ctx := context.Background()
			blob, closeBlob, ok := cli.InitRemote(ctx, logger, cfg)
			if !ok {
				fail("checking remote", errors.New("no remote provider configured (set REMOTE_PROVIDER)"))
			}
			defer closeBlob()

			info, err := blob.Stat(ctx)
			if errors.Is(err, remote.ErrBlobNotFound) {
				fmt.Println("Remote store reachable, no document uploaded yet (run 'budgetbook sync once' to seed it)")
				return
			}
			if err != nil {
				fail("checking remote", err)
			}
			fmt.Printf("Remote document: %d bytes, modified %s\n",
				info.Size, info.ModifiedAt.Format(time.RFC3339))
		}).
		ToCmd()
}
