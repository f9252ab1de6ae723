// campaign-watch 订阅战役事件流，在终端输出检定、骰池与天数变化
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/wfunc/fate-dice/internal/client"
	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/logger"
	"go.uber.org/zap"
)

// watchConfig 环境变量配置，命令行参数优先
type watchConfig struct {
	BaseURL    string        `env:"FATE_DICE_URL" envDefault:"http://localhost:8080"`
	Token      string        `env:"FATE_DICE_TOKEN"`
	CampaignID uint          `env:"FATE_DICE_CAMPAIGN_ID"`
	MinBackoff time.Duration `env:"FATE_DICE_MIN_BACKOFF" envDefault:"500ms"`
	MaxBackoff time.Duration `env:"FATE_DICE_MAX_BACKOFF" envDefault:"30s"`
	LogLevel   string        `env:"FATE_DICE_LOG_LEVEL" envDefault:"info"`
	LogFormat  string        `env:"FATE_DICE_LOG_FORMAT" envDefault:"console"`
}

func parseConfig(fs *flag.FlagSet, args []string) (watchConfig, error) {
	var cfg watchConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("解析环境变量失败: %w", err)
	}

	campaignID := uint64(cfg.CampaignID)
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "服务地址 (FATE_DICE_URL)")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "访问令牌 (FATE_DICE_TOKEN)")
	fs.Uint64Var(&campaignID, "campaign", campaignID, "战役ID (FATE_DICE_CAMPAIGN_ID)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "日志级别")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.CampaignID = uint(campaignID)

	if cfg.Token == "" {
		return cfg, errors.New("缺少访问令牌")
	}
	if cfg.CampaignID == 0 {
		return cfg, errors.New("缺少战役ID")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "campaign-watch: %v\n", err)
		os.Exit(2)
	}

	if err := logger.Init(&config.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stdout"}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetModuleLogger("watch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := client.NewReconciler(cfg.CampaignID)
	session := client.NewSession(client.SessionConfig{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.Token,
		CampaignID: cfg.CampaignID,
		MinBackoff: cfg.MinBackoff,
		MaxBackoff: cfg.MaxBackoff,
	}, client.NewHTTPFetcher(cfg.BaseURL, cfg.Token), reconciler, log)

	session.OnEvent(func(ev client.Event, applied bool) {
		if !applied {
			log.Debug("忽略重复或过期事件", zap.String("type", ev.Type()), zap.Uint64("seq", ev.Meta().Seq))
			return
		}
		logEvent(log, ev, reconciler.View())
	})

	log.Info("开始订阅战役事件",
		zap.String("url", cfg.BaseURL),
		zap.Uint("campaign_id", cfg.CampaignID),
	)
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("订阅异常结束", zap.Error(err))
		os.Exit(1)
	}
	log.Info("已停止订阅")
}

func logEvent(log *zap.Logger, ev client.Event, view client.View) {
	seq := zap.Uint64("seq", ev.Meta().Seq)

	switch e := ev.(type) {
	case *client.RollComplete:
		roll := e.Payload.Roll
		fields := []zap.Field{seq,
			zap.String("character", e.Payload.CharacterName),
			zap.Int("die", roll.DieResult),
			zap.Int("modified", roll.ModifiedD6),
			zap.String("outcome", string(roll.Outcome)),
		}
		if roll.D20Roll != nil {
			fields = append(fields, zap.Int("d20", *roll.D20Roll))
		}
		if roll.ChallengeID != nil {
			fields = append(fields, zap.Uint("challenge_id", *roll.ChallengeID))
		}
		log.Info("检定完成", fields...)
	case *client.PoolUpdated:
		values := make([]int, 0)
		if e.Payload.Pool != nil {
			for _, d := range e.Payload.Pool.Dice {
				values = append(values, d.DieResult)
			}
		}
		log.Info("骰池更新", seq, zap.Uint("character_id", e.Payload.CharacterID), zap.Ints("dice", values))
	case *client.ChallengeUpdate:
		log.Info("挑战变化", seq,
			zap.String("action", e.Payload.Action),
			zap.Uint("challenge_id", e.Payload.Challenge.ID),
			zap.Uints("active", view.ActiveChallengeIDs()),
		)
	case *client.DayIncremented:
		log.Info("进入新的一天", seq, zap.Int("day", e.Payload.CurrentDay))
	}
}
