package commands

import "git.home.luguber.info/inful/mailbuilder/internal/pipeline"

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).Build)
}

// MinifyCmd implements the 'minify' command.
type MinifyCmd struct{}

func (m *MinifyCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).Minify)
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).Clean)
}

// MailCmd implements the 'mail' command.
type MailCmd struct{}

func (m *MailCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).Mail)
}

// PublishCmd implements the 'publish' command.
type PublishCmd struct{}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).Publish)
}

// EmptyBucketCmd implements the 'empty-bucket' command.
type EmptyBucketCmd struct{}

func (e *EmptyBucketCmd) Run(_ *Global, root *CLI) error {
	return root.runTask((*pipeline.Builder).EmptyBucket)
}
