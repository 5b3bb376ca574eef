package commands

// DevCmd implements the 'dev' command.
type DevCmd struct{}

func (d *DevCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	b, err := root.builder(ctx)
	if err != nil {
		return err
	}
	if err := b.Dev(ctx); err != nil {
		return err
	}
	g.Logger.Info("Dev server stopped")
	return nil
}
