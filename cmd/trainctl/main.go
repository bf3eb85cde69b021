package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"ml-training/internal/client"
	"ml-training/internal/messaging"

	"github.com/schollz/progressbar/v3"
)

const usage = `usage: trainctl [-url URL] [-timeout DURATION] <command> [flags]

commands:
  train [-retrain]     train a new model and print its id, accuracy and version
  info                 print the latest model record, or null
  models [-limit N]    list model records, newest first
  health               check that the service is up
  watch -amqp URL      print model trained events as they are published
`

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("error formatting response: %v", err)
	}
	fmt.Println(string(out))
}

func train(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	retrain := fs.Bool("retrain", false, "request a retrain")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("⏳ training"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	res, err := c.Train(ctx, *retrain)
	close(done)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	printJSON(res)
	return nil
}

func models(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	limit := fs.Int("limit", 0, "maximum number of records, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.ListModels(ctx, *limit)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	amqpURL := fs.String("amqp", os.Getenv("RABBITMQ_URL"), "rabbitmq url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amqpURL == "" {
		return fmt.Errorf("watch requires -amqp or RABBITMQ_URL")
	}

	receiver, err := messaging.NewRabbitMQReceiver(*amqpURL)
	if err != nil {
		return err
	}
	defer receiver.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-receiver.Tasks():
			var event messaging.ModelTrainedPayload
			if err := json.Unmarshal(task.Payload(), &event); err != nil {
				log.Printf("skipping malformed %s message: %v", task.Type(), err)
				_ = task.Reject()
				continue
			}
			printJSON(event)
			if err := task.Ack(); err != nil {
				return fmt.Errorf("error acknowledging message: %w", err)
			}
		}
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "training service url")
	timeout := flag.Duration("timeout", 5*time.Minute, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*baseURL, *timeout)
	command, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch command {
	case "train":
		err = train(ctx, c, args)
	case "info":
		var info any
		if info, err = c.ModelInfo(ctx); err == nil {
			printJSON(info)
		}
	case "models":
		err = models(ctx, c, args)
	case "health":
		var health any
		if health, err = c.Health(ctx); err == nil {
			printJSON(health)
		}
	case "watch":
		err = watch(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}
