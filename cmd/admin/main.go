package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/usampac/admin-web/internal/config"
	"github.com/usampac/admin-web/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := cfg.Logger

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var client *mongo.Client
	if cfg.MongoURI != "" {
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err = mongo.Connect(ctx, clientOptions)
		if err != nil {
			logger.WithError(err).Fatal("connect MongoDB")
		}
	}

	app, err := server.New(ctx, cfg, client)
	if err != nil {
		logger.WithError(err).Fatal("build server")
	}
	if err := app.Run(); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
