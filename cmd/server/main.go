package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ansshul10/Chatifyzone07/internal/analytics"
	"github.com/ansshul10/Chatifyzone07/internal/config"
	"github.com/ansshul10/Chatifyzone07/internal/handlers"
	"github.com/ansshul10/Chatifyzone07/internal/store"
	"github.com/ansshul10/Chatifyzone07/internal/ws"
)

func main() {
	cfg := config.Default()
	if v, err := config.LoadConfig("config"); err == nil {
		parsed, err := config.ParseConfig(v)
		if err != nil {
			logrus.WithError(err).Fatal("invalid configuration")
		}
		cfg = parsed
	} else {
		logrus.WithError(err).Warn("no config file found, using defaults")
	}

	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open message store")
	}
	defer st.Close()

	rec := analytics.NewRecorder(st)
	hub := ws.NewHub(st, rec, cfg.Chat.TypingWindow)
	go hub.Run()
	defer hub.Close()

	h := handlers.NewHandler(st, hub, cfg.Chat.HistoryLimit)

	addr := ":" + cfg.Server.Port
	logrus.WithFields(logrus.Fields{
		"addr":  addr,
		"store": cfg.Store.Path,
	}).Info("chat relay server listening")

	logrus.Fatal(http.ListenAndServe(addr, h.Router()))
}
