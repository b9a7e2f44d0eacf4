package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/advisor/cmd/advisor/init"
	"github.com/papercomputeco/advisor/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		out = &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	readConfig := func() *config.Config {
		var cfg config.Config
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".advisor", "config.toml"), &cfg)
		Expect(err).NotTo(HaveOccurred())
		return &cfg
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() {
			Expect(os.Chdir(origDir)).To(Succeed())
		})
	})

	It("creates a .advisor directory with a default config", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".advisor"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := readConfig()
		Expect(cfg.Provider.Profile).To(Equal("hf-zephyr"))
		Expect(cfg.Session.HistoryTurns).To(Equal(20))
	})

	It("applies a preset", func() {
		Expect(run("--preset", "ollama")).To(Succeed())
		Expect(readConfig().Provider.Profile).To(Equal("ollama"))
	})

	It("rejects an unknown preset without creating anything", func() {
		Expect(run("--preset", "anthropic")).To(MatchError(ContainSubstring("unknown preset")))
		_, err := os.Stat(filepath.Join(tmpDir, ".advisor"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("does not overwrite an existing config", func() {
		Expect(run("--preset", "groq")).To(Succeed())
		Expect(run("--preset", "ollama")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
		Expect(readConfig().Provider.Profile).To(Equal("groq"))
	})
})
