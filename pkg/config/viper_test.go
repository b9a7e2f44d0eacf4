package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[provider]
profile = "openai"

[eventstream]
brokers = ["k1:9092", "k2:9092"]
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Provider.Profile).To(Equal("openai"))
		Expect(cfg.EventStream.Brokers).To(Equal([]string{"k1:9092", "k2:9092"}))
		Expect(cfg.Session.HistoryTurns).To(Equal(20))
	})

	It("env vars take precedence over config file values", func() {
		data := "[provider]\nprofile = \"openai\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		GinkgoT().Setenv("ADVISOR_PROVIDER_PROFILE", "groq")
		GinkgoT().Setenv("ADVISOR_SESSION_TIMEOUT", "5s")
		GinkgoT().Setenv("ADVISOR_EVENTSTREAM_BROKERS", "a:1,b:2")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Provider.Profile).To(Equal("groq"))
		Expect(cfg.Session.Timeout.Duration).To(Equal(5 * time.Second))
		Expect(cfg.EventStream.Brokers).To(Equal([]string{"a:1", "b:2"}))
	})

	It("rejects invalid effective configuration", func() {
		GinkgoT().Setenv("ADVISOR_PROVIDER_PROFILE", "unknown")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(MatchError(ContainSubstring("invalid configuration")))
	})
})

var _ = Describe("flags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds a set flag over the config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when the flag is not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)

		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen, "nonexistent"})
		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("takes names, shorthands and defaults from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var (
			profile string
			tokens  int
			temp    float64
			timeout time.Duration
			prompt  string
		)
		config.AddStringFlag(cmd, config.SessionFlags, config.FlagProfile, &profile)
		config.AddIntFlag(cmd, config.SessionFlags, config.FlagMaxTokens, &tokens)
		config.AddFloatFlag(cmd, config.SessionFlags, config.FlagTemperature, &temp)
		config.AddDurationFlag(cmd, config.SessionFlags, config.FlagTimeout, &timeout)
		config.AddStringFlag(cmd, config.SessionFlags, config.FlagSystemPrompt, &prompt)

		f := cmd.Flags().Lookup("profile")
		Expect(f.Shorthand).To(Equal("p"))
		Expect(f.DefValue).To(Equal("hf-zephyr"))
		Expect(cmd.Flags().Lookup("max-tokens").DefValue).To(Equal("0"))
		Expect(cmd.Flags().Lookup("temperature").DefValue).To(Equal("0.7"))
		Expect(cmd.Flags().Lookup("timeout").DefValue).To(Equal("1m0s"))
		Expect(cmd.Flags().Lookup("system-prompt").DefValue).To(BeEmpty())
	})

	It("ignores unknown registry keys", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, config.ServeFlags, "nope", &s)
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})

	It("registers every session flag", func() {
		cmd := &cobra.Command{Use: "test"}
		var sv config.SessionFlagValues
		sv.Register(cmd)

		for _, f := range config.SessionFlags {
			Expect(cmd.Flags().Lookup(f.Name)).NotTo(BeNil(), f.Name)
		}

		Expect(cmd.Flags().Set("history-turns", "4")).To(Succeed())
		Expect(sv.HistoryTurns).To(Equal(4))
	})
})
