package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/config"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/engine"
	"hla-gateway/internal/gateway"
	"hla-gateway/internal/infrastructure/catalog"
	"hla-gateway/internal/infrastructure/storage"
	"hla-gateway/internal/rti"
	"hla-gateway/internal/server"
	"hla-gateway/internal/translator"
	"hla-gateway/internal/version"
	"hla-gateway/pkg/logger"
)

func openCatalog(ctx context.Context, path string) (*sql.DB, *catalog.SQLiteStore, error) {
	db, err := catalog.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := catalog.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, catalog.NewSQLiteStore(db), nil
}

// loadDocument читает документ маппингов из файла или из каталога.
// Без источника возвращается пустой документ.
func loadDocument(ctx context.Context, src sourceFlags, store catalog.Store) (*config.Document, error) {
	switch {
	case src.file != "" && src.name != "":
		return nil, errors.New("--mappings and --catalog-name are mutually exclusive")
	case src.file != "":
		return config.LoadDocument(src.file)
	case src.name != "":
		if store == nil {
			return nil, errors.New("catalog is not available")
		}
		var (
			rev *catalog.Revision
			err error
		)
		if src.version > 0 {
			rev, err = store.Get(ctx, src.name, src.version)
		} else {
			rev, err = store.Latest(ctx, src.name)
		}
		if err != nil {
			return nil, err
		}
		logger.Log.WithFields(logrus.Fields{"name": rev.Name, "version": rev.Version}).Info("Loaded mapping document from catalog")
		return config.ParseDocument([]byte(rev.Document))
	}
	logger.Log.Warn("No mapping document given, the gateway starts without mappings")
	return &config.Document{}, nil
}

// newSession собирает сессию и устанавливает в неё маппинги документа.
func newSession(cfg engine.Config, s config.Settings, amb rti.Ambassador, doc *config.Document) (*engine.Session, error) {
	reg := translator.NewRegistry(translator.NewRPRTranslator())
	bundle, err := config.Build(doc, reg)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping document:\n%w", err)
	}
	cfg.DDM = cfg.DDM || bundle.DDMEnabled

	session := engine.NewSession(cfg, engine.Deps{
		Ambassador:  amb,
		Translators: reg,
		Messages:    bundle.Messages,
		Options:     gateway.Options{SiteID: s.SiteID, ApplicationID: s.AppID},
	})
	if err := bundle.Install(session.Gateway); err != nil {
		return nil, err
	}
	return session, nil
}

func runServe(ctx context.Context, s config.Settings, src sourceFlags, ddmEnabled bool, journalDir string) error {
	logger.Log.Info(version.String())

	db, store, err := openCatalog(ctx, s.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := loadDocument(ctx, src, store)
	if err != nil {
		return err
	}

	// Привязка к настоящему RTI внешняя; в процессе работает LocalAmbassador.
	var amb rti.Ambassador = rti.NewLocalAmbassador()
	var recorder *storage.Recorder
	if journalDir != "" {
		recorder = storage.NewRecorder(amb, storage.NewJournal(s.Federation))
		amb = recorder
	}

	cfg := engine.NewConfig()
	cfg.Federation, cfg.Federate = s.Federation, s.Federate
	cfg.Tick = tickOrDefault(s.Tick)
	cfg.DDM = ddmEnabled

	session, err := newSession(cfg, s, amb, doc)
	if err != nil {
		return err
	}

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- session.Run(ctx) }()

	srv := server.New(session, store, s.Port)
	serveErr := srv.Run(ctx)

	if err := <-sessionErr; err != nil {
		return err
	}
	if recorder != nil {
		path, err := storage.NewJournalService(journalDir).Save(recorder.Journal())
		if err != nil {
			return fmt.Errorf("save journal: %w", err)
		}
		logger.Log.WithFields(logrus.Fields{
			"path":    path,
			"records": recorder.Journal().Len(),
		}).Info("Federation journal saved")
	}
	logger.Log.Info("Done.")
	return serveErr
}

func runValidate(out io.Writer, path string) error {
	doc, err := config.LoadDocument(path)
	if err != nil {
		return err
	}
	bundle, err := config.Build(doc, translator.NewRegistry(translator.NewRPRTranslator()))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: ok\n", path)
	fmt.Fprintf(out, "  message types: %d\n", len(bundle.Messages.Types()))
	for _, m := range bundle.Objects {
		et := "-"
		if m.EntityType != nil {
			et = m.EntityType.String()
		}
		fmt.Fprintf(out, "  object  %-24s %s -> %s [%s, entity type %s, %d fields]\n",
			m.Name(), m.ObjectClassName, m.ActorType, m.LocalOrRemote, et, len(m.Mappings))
	}
	for _, m := range bundle.Interactions {
		fmt.Fprintf(out, "  interaction %-20s %s -> %s [%s, %d fields]\n",
			m.Name(), m.InteractionName, m.MessageType, m.LocalOrRemote, len(m.Mappings))
	}
	fmt.Fprintf(out, "  ddm: enabled=%v calculators=%d\n", bundle.DDMEnabled, len(bundle.Calculators))
	return nil
}

func runImport(ctx context.Context, out io.Writer, dbPath, path, name, comment string) error {
	doc, err := config.LoadDocument(path)
	if err != nil {
		return err
	}
	if _, err := config.Build(doc, translator.NewRegistry(translator.NewRPRTranslator())); err != nil {
		return fmt.Errorf("refusing to import invalid document:\n%w", err)
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	db, store, err := openCatalog(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rev, err := store.Save(ctx, name, string(data), comment)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %s version %d\n", rev.Name, rev.Version)
	return nil
}

func runReplay(ctx context.Context, out io.Writer, s config.Settings, src sourceFlags, path string, speed float64, settle int) error {
	journal, err := storage.NewJournalService(filepath.Dir(path)).Load(path)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}

	var store catalog.Store
	if src.name != "" {
		db, sqlStore, err := openCatalog(ctx, s.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = sqlStore
	}
	doc, err := loadDocument(ctx, src, store)
	if err != nil {
		return err
	}

	amb := rti.NewLocalAmbassador()
	cfg := engine.NewConfig()
	cfg.Federation = journal.Federation
	if cfg.Federation == "" {
		cfg.Federation = "replay"
	}
	cfg.Federate = s.Federate
	// Без темпа тики идут только после проигрывания, иначе цикл тикает сам.
	cfg.Tick = 0
	if speed > 0 {
		cfg.Tick = tickOrDefault(s.Tick)
	}

	session, err := newSession(cfg, s, amb, doc)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sessionErr := make(chan error, 1)
	go func() { sessionErr <- session.Run(runCtx) }()
	defer func() {
		cancel()
		<-sessionErr
	}()

	// Дожидаемся подключения: Run подключается до первой команды.
	if err := session.Query(ctx, func(*engine.Session) {}); err != nil {
		return err
	}

	player := storage.NewPlayer(amb)
	applied, err := player.Play(ctx, journal, speed)
	if err != nil {
		return err
	}
	for i := 0; i < settle; i++ {
		if err := session.Publish(ctx, domain.NewSystemMessage(domain.MessageTick)); err != nil {
			return err
		}
	}

	var report struct {
		Journal string `json:"journal"`
		Records int    `json:"records"`
		Applied int    `json:"applied"`
		Session any    `json:"session"`
		Actors  any    `json:"actors"`
		Logs    any    `json:"logs"`
	}
	report.Journal, report.Records, report.Applied = path, journal.Len(), applied
	if err := session.Query(ctx, func(s *engine.Session) {
		report.Session = s.BuildSessionView()
		report.Actors = s.BuildActorViews()
		report.Logs = s.BuildLogs()
	}); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
