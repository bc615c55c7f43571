package cli

import (
	"context"
	"errors"

	coreapp "archcheck/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI watches the project and shows every run in a full screen list until
// the user quits or ctx is cancelled.
func runUI(ctx context.Context, analysis *coreapp.App, cfgPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(analysis.Config.Project.RootDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- analysis.Watch(ctx, coreapp.WatchOptions{
			ConfigPath: cfgPath,
			OnRun: func(run coreapp.Run, err error) {
				writeMetrics(analysis.Config)
				p.Send(runMsg{run: run, err: err})
			},
		})
	}()

	_, err := p.Run()
	cancel()
	if werr := <-watchErr; werr != nil && err == nil {
		err = werr
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
