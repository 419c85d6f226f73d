package main

import (
	"context"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"stickerbot/internal/adapters/cache"
	"stickerbot/internal/adapters/converter"
	"stickerbot/internal/adapters/file"
	"stickerbot/internal/adapters/handler"
	"stickerbot/internal/adapters/sender"
	"stickerbot/internal/core/domain/command"
	"stickerbot/internal/core/port"
	"stickerbot/internal/core/service"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting stickerbot...")

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	setDefaults()

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = viper.GetInt("telegram.max_idle_conns")
	client := &http.Client{Transport: transport}

	token := viper.GetString("telegram.bot_token")
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
		bot.WithHTTPClient(time.Minute, client),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b, client)

	outputCache, err := cache.Open(ctx, cache.Config{
		Backend:   viper.GetString("cache.backend"),
		Path:      viper.GetString("cache.path"),
		RedisURL:  viper.GetString("cache.redis_url"),
		Namespace: viper.GetString("cache.namespace"),
	})
	if err != nil {
		log.Panic().Err(err).Msg("failed opening output cache")
	}

	writer := service.NewCacheWriter(outputCache)
	go service.LogCacheWriteErrors(writer.Errors())

	imageConverter, err := newConverter()
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing converter")
	}

	var fill *color.NRGBA
	if viper.GetBool("convert.fill_transparent") {
		c, err := service.ParseHexColor(viper.GetString("convert.fill_color"))
		if err != nil {
			log.Panic().Err(err).Msg("invalid fill color in config")
		}
		fill = &c
	}

	convertTimeout, err := time.ParseDuration(viper.GetString("convert.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for conversions in config")
	}

	pipeline := service.NewPipeline(s, file.TempStaging{}, imageConverter, s, fill)
	conversions := service.NewConversionService(outputCache, service.NewCoordinator(writer), pipeline,
		convertTimeout)

	authorizer, err := service.NewAuthorizer(s)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing authorizer")
	}

	tracker := service.NewUsageTracker(ctx, s)

	commandRegistry := &command.Registry{}
	commandRegistry.Register(command.NewHelp(s, "/start"))
	commandRegistry.Register(command.NewHelp(s, "/help"))
	commandRegistry.Register(command.NewHelp(s, "/usage"))
	commandRegistry.Register(command.NewDebug(s, conversions, "/debug"))

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for handler in config")
	}

	commandHandler := handler.NewCommand(commandRegistry, handlerTimeout)
	stickerHandler := handler.NewSticker(command.NewSticker(conversions, s, s, authorizer, tracker), handlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandlerMatchFunc(handler.IsSticker, stickerHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)

	log.Info().Msg("shutting down, flushing cache writes")
	writer.Close()

	err = outputCache.Close()
	if err != nil {
		log.Error().Err(err).Msg("failed closing output cache")
	}
}

func setDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("telegram.max_idle_conns", 10)
	viper.SetDefault("telegram.daily_conversion_limit", 0)
	viper.SetDefault("handler.timeout", "2m")
	viper.SetDefault("cache.backend", cache.BackendSQLite)
	viper.SetDefault("cache.path", "cache.db")
	viper.SetDefault("cache.namespace", cache.DefaultNamespace)
	viper.SetDefault("converter.backend", "dwebp")
	viper.SetDefault("converter.binary", "dwebp")
	viper.SetDefault("converter.max_output", converter.DefaultMaxOutput)
	viper.SetDefault("convert.timeout", "0s")
	viper.SetDefault("convert.fill_transparent", false)
	viper.SetDefault("convert.fill_color", "#ffffff")
}

func newConverter() (port.ImageConverter, error) {
	maxOutput := viper.GetInt("converter.max_output")

	switch backend := viper.GetString("converter.backend"); backend {
	case "native":
		log.Info().Msg("using native webp decoder")
		return converter.NewNativeConverter(maxOutput), nil
	default:
		log.Info().Str("backend", backend).Msg("using external webp converter")
		return converter.NewDWebPConverter(viper.GetString("converter.binary"), maxOutput)
	}
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
