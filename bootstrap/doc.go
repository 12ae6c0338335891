// Package bootstrap runs an augkit process with uniform lifecycle management.
//
// An App validates its configuration, initializes the logger, starts the
// registered components in order, runs the task and stops everything in
// reverse order, including on SIGINT or SIGTERM.
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(storageComponent)
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return runEpochs(ctx)
//	})
package bootstrap
