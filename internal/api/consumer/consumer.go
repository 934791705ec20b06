package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/internal/service"
	"github.com/Zereker/skyroute/pkg/log"
	"github.com/Zereker/skyroute/pkg/mq"
)

// 命令类型
const (
	CommandLocation   = "location"
	CommandHub        = "hub"
	CommandConnection = "connection"
)

// Command 摄取命令，payload 字段与注册接口一致
type Command struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Consumer 从 Kafka 摄取注册命令
type Consumer struct {
	logger    *slog.Logger
	service   *service.Service
	consumers []*mq.KafkaConsumer
}

// Config 消费者配置
type Config struct {
	Kafka mq.KafkaConfig
}

// NewConsumer 创建消费者
func NewConsumer(svc *service.Service, cfg Config) (*Consumer, error) {
	c := &Consumer{
		logger:  log.Logger("consumer"),
		service: svc,
	}

	if !cfg.Kafka.Enabled {
		c.logger.Info("kafka disabled, consumer not started")
		return c, nil
	}

	for _, consumerCfg := range cfg.Kafka.Consumers {
		kc, err := mq.NewKafkaConsumer(cfg.Kafka, consumerCfg, c.Handle)
		if err != nil {
			_ = c.Stop()
			return nil, fmt.Errorf("consumer %s: %w", consumerCfg.Group, err)
		}
		c.consumers = append(c.consumers, kc)
	}

	return c, nil
}

// Start 启动所有消费者
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.consumers) == 0 {
		c.logger.Info("no consumers configured, skipping start")
		return nil
	}

	c.logger.Info("starting consumers", "count", len(c.consumers))

	g, ctx := errgroup.WithContext(ctx)
	for _, consumer := range c.consumers {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	return g.Wait()
}

// Stop 停止所有消费者
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumers")

	for _, consumer := range c.consumers {
		if err := consumer.Stop(); err != nil {
			c.logger.Error("failed to stop consumer", "error", err)
		}
	}

	return nil
}

// Handle 处理一条命令。重复注册视为成功，重放是幂等的。
func (c *Consumer) Handle(ctx context.Context, topic string, message []byte) error {
	cmd, err := decodeCommand(message)
	if err != nil {
		return err
	}

	key, err := c.apply(ctx, cmd)
	switch domain.KindOf(err) {
	case domain.KindUnknown:
		if err != nil {
			return err
		}
		c.logger.Debug("command applied", "topic", topic, "type", cmd.Type, "key", key)
		return nil
	case domain.KindAlreadyExists:
		c.logger.Debug("command already applied", "topic", topic, "type", cmd.Type, "error", err)
		return nil
	default:
		return fmt.Errorf("%s command: %w", cmd.Type, err)
	}
}

func (c *Consumer) apply(ctx context.Context, cmd Command) (string, error) {
	switch cmd.Type {
	case CommandLocation:
		var in domain.LocationInput
		if err := decodePayload(cmd.Payload, &in); err != nil {
			return "", err
		}
		return c.service.RegisterLocation(ctx, in)

	case CommandHub:
		var in domain.HubInput
		if err := decodePayload(cmd.Payload, &in); err != nil {
			return "", err
		}
		return c.service.RegisterHub(ctx, in)

	case CommandConnection:
		var in domain.ConnectionInput
		if err := decodePayload(cmd.Payload, &in); err != nil {
			return "", err
		}
		return c.service.RegisterConnection(ctx, in)

	default:
		return "", domain.InvalidInput("unknown command type %q", cmd.Type)
	}
}

// decodeCommand 解析命令，数字保留为 json.Number 以便严格转换整数
func decodeCommand(message []byte) (Command, error) {
	var cmd Command

	dec := json.NewDecoder(bytes.NewReader(message))
	dec.UseNumber()
	if err := dec.Decode(&cmd); err != nil {
		return cmd, domain.InvalidInput("decode command: %v", err)
	}
	if cmd.Type == "" {
		return cmd, domain.InvalidInput("command type is required")
	}
	return cmd, nil
}

// decodePayload 将 payload 映射到输入结构，未知字段报错
func decodePayload(payload map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return domain.InvalidInput("decode payload: %v", err)
	}
	return nil
}
