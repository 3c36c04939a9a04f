package main

import "context"

// dependency adapts a pair of start/stop funcs to the lifecycle controller
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}
