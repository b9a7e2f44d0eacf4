package servecmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
	"github.com/papercomputeco/advisor/pkg/eventstream/worker"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

var _ = Describe("Serve command", func() {
	var (
		tmpDir string
		cmd    *cobra.Command
		cmder  *serveCommander
	)

	writeConfig := func(data string) {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
	}

	// prepare parses args and runs PreRunE without starting the server.
	prepare := func(args ...string) error {
		cmd, cmder = newServeCmd()
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.PersistentFlags().String("config-dir", "", "Override path to .advisor/ config directory")
		Expect(cmd.ParseFlags(append([]string{"--config-dir", tmpDir}, args...))).To(Succeed())
		cmder.logger = logger.Nop()
		return cmd.PreRunE(cmd, nil)
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("registers session and serve flags", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		for _, name := range []string{"profile", "model", "listen", "eventstream", "brokers", "topic", "log-file", "no-mcp", "no-watch", "idle-timeout"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("listen").Shorthand).To(Equal("l"))
		Expect(cmd.Flags().Lookup("idle-timeout").DefValue).To(Equal("1h0m0s"))
	})

	Describe("pruneIdle", func() {
		It("ends sessions that stay idle past the timeout", func() {
			Expect(prepare("--idle-timeout", "10ms")).To(Succeed())
			Expect(cmder.idleTimeout).To(Equal(10 * time.Millisecond))

			base, err := session.FromSettings(cmder.cfg, nil, testutils.NewFakeSender(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			sessions := session.NewManager(base)
			_, err = sessions.Create()
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				cmder.pruneIdle(ctx, sessions, 5*time.Millisecond)
			}()

			Eventually(sessions.Len).Should(BeZero())
			cancel()
			Eventually(done).Should(BeClosed())
		})

		It("checks at least once a minute", func() {
			Expect(pruneInterval(time.Hour)).To(Equal(time.Minute))
			Expect(pruneInterval(20 * time.Second)).To(Equal(5 * time.Second))
			Expect(pruneInterval(time.Millisecond)).To(Equal(time.Second))
		})
	})

	Describe("loadConfig", func() {
		It("uses the config file", func() {
			writeConfig("[api]\nlisten = \":6000\"\n[provider]\nprofile = \"ollama\"\n")
			Expect(prepare()).To(Succeed())
			Expect(cmder.cfg.API.Listen).To(Equal(":6000"))
			Expect(cmder.cfg.Provider.Profile).To(Equal("ollama"))
		})

		It("lets flags win over the file", func() {
			writeConfig("[api]\nlisten = \":6000\"\n")
			Expect(prepare("--listen", ":7000", "--brokers", "a:1,b:2")).To(Succeed())
			Expect(cmder.cfg.API.Listen).To(Equal(":7000"))
			Expect(cmder.cfg.EventStream.Brokers).To(Equal([]string{"a:1", "b:2"}))
		})

		It("rejects an unknown event stream", func() {
			Expect(prepare("--eventstream", "nats")).To(MatchError(ContainSubstring("invalid configuration")))
		})
	})

	Describe("newPublisher", func() {
		It("defaults to the nop publisher", func() {
			Expect(prepare()).To(Succeed())
			p, err := cmder.newPublisher()
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
		})

		It("queues kafka publishing on a worker pool", func() {
			Expect(prepare("--eventstream", "kafka", "--brokers", "localhost:9092")).To(Succeed())
			p, err := cmder.newPublisher()
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeAssignableToTypeOf(&worker.Pool{}))
			Expect(p.Close()).To(Succeed())
		})
	})

	Describe("newLogger", func() {
		It("also writes JSON to the log file", func() {
			Expect(prepare()).To(Succeed())
			cmder.logFile = filepath.Join(tmpDir, "advisor.log")

			var stderr bytes.Buffer
			log, closeLog, err := cmder.newLogger(&stderr)
			Expect(err).NotTo(HaveOccurred())
			log.Info("hello", "session_id", "s1")
			closeLog()

			data, err := os.ReadFile(cmder.logFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"session_id":"s1"`))
			Expect(stderr.String()).To(ContainSubstring("hello"))
		})
	})

	Describe("reload", func() {
		It("applies a new profile to sessions created afterwards", func() {
			Expect(prepare()).To(Succeed())

			sender := testutils.NewFakeSender(testutils.ChatReply("ok"))
			base, err := session.FromSettings(cmder.cfg, nil, sender, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			sessions := session.NewManager(base)

			writeConfig("[provider]\nprofile = \"groq\"\n")
			cmder.reload(sessions, nil, sender, nil)

			Expect(sessions.Base().Profile.Name).To(Equal(provider.Groq))
			Expect(cmder.cfg.Provider.Profile).To(Equal(provider.Groq))
		})

		It("keeps the old config when the new one is invalid", func() {
			Expect(prepare()).To(Succeed())

			sender := testutils.NewFakeSender()
			base, err := session.FromSettings(cmder.cfg, nil, sender, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			sessions := session.NewManager(base)

			writeConfig("[generation]\ntemperature = 9.0\n")
			cmder.reload(sessions, nil, sender, nil)

			Expect(sessions.Base().Profile.Name).To(Equal(provider.HFZephyr))
		})
	})

	It("compares event stream settings", func() {
		a := config.EventStreamConfig{Provider: "kafka", Topic: "t", Brokers: []string{"a"}}
		b := a
		Expect(sameEventStream(a, b)).To(BeTrue())
		b.Brokers = []string{"b"}
		Expect(sameEventStream(a, b)).To(BeFalse())
	})
})
