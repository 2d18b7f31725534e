// Package bootstrap runs a finite task inside a managed component lifecycle.
//
// NewApp applies config defaults, validates the config and initializes the
// global logger. RunTask starts every registered component, runs the OnStart
// hooks and the task, then stops everything again. Shutdown happens on every
// path out of RunTask, including startup failures and SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(exec)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return orch.Run(ctx, req, sink, observer)
//	})
package bootstrap
