// Package cli 定义 portfolioctl 的 cobra 命令，后台操作通过 dashboard.Manager 完成。
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-go/internal/content"
	"portfolio-go/internal/dashboard"
	"portfolio-go/internal/model"
)

// app 保存全局参数和命令之间共享的状态。
type app struct {
	server    string
	tokenFile string
	in        *bufio.Reader
}

func defaultServer() string {
	if s := os.Getenv("PORTFOLIO_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultTokenFile() string {
	if p := os.Getenv("PORTFOLIO_TOKEN_FILE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".portfolioctl-token"
	}
	return filepath.Join(dir, "portfolioctl", "token")
}

// NewRootCmd 创建 portfolioctl 的根命令。
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "Manage portfolio content from the terminal",
		Long: `portfolioctl talks to the portfolio admin API.
Log in once, then list, add, edit and delete rows of any content table.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.in = bufio.NewReader(cmd.InOrStdin())
		},
	}
	root.PersistentFlags().StringVar(&a.server, "server", defaultServer(), "Portfolio server base URL")
	root.PersistentFlags().StringVar(&a.tokenFile, "token-file", defaultTokenFile(), "Where the session token is stored")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.levelCmd(),
		hashPasswordCmd(),
	)
	return root
}

// Execute 运行根命令，由 main 调用。
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, explain(err))
		os.Exit(1)
	}
}

// explain 为需要登录的错误补充提示。
func explain(err error) string {
	if errors.Is(err, model.ErrAuthRequired) {
		return fmt.Sprintf("%v (run 'portfolioctl login' first)", err)
	}
	return err.Error()
}

func (a *app) readToken() string {
	b, err := os.ReadFile(a.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (a *app) saveToken(tok string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(a.tokenFile, []byte(tok+"\n"), 0o600)
}

func (a *app) clearToken() error {
	if err := os.Remove(a.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (a *app) gateway() *dashboard.HTTPGateway {
	return dashboard.NewHTTPGateway(a.server, a.readToken(), nil)
}

// readLine 从标准输入读取一行。
func (a *app) readLine(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// stdinConfirmer 在终端中询问 y/N。
type stdinConfirmer struct {
	a   *app
	out io.Writer
}

func (c stdinConfirmer) Confirm(_ context.Context, prompt string) bool {
	answer, err := c.a.readLine(c.out, prompt+" [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// manager 创建并刷新一张表的 Manager。
func (a *app) manager(ctx context.Context, tableName string, confirm dashboard.Confirmer) (*dashboard.Manager, error) {
	t, ok := content.Lookup(tableName)
	if !ok {
		return nil, fmt.Errorf("unknown table %q (one of: %s)", tableName, tableNames())
	}
	m := dashboard.NewManager(t, a.gateway(), confirm)
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func tableNames() string {
	names := make([]string, 0, len(content.Tables()))
	for _, t := range content.Tables() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// parseAssignments 解析 key=value 参数。
func parseAssignments(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out = append(out, [2]string{strings.TrimSpace(k), v})
	}
	return out, nil
}

func printNotice(out io.Writer, m *dashboard.Manager) {
	if n, ok := m.Notice(); ok {
		fmt.Fprintln(out, n.Text)
	}
}
