package uritemplate

import (
	"context"

	"go.uber.org/zap"
)

// Catalog expands named templates held in a TemplateStorage. Sources are
// parsed through the engine, so each distinct source is parsed once while
// it stays in the engine cache.
type Catalog struct {
	engine  *Engine
	storage TemplateStorage
}

// NewCatalog creates a catalog. A nil engine gets a default one.
func NewCatalog(engine *Engine, storage TemplateStorage) *Catalog {
	if engine == nil {
		engine = MustNew()
	}
	return &Catalog{engine: engine, storage: storage}
}

// Storage returns the underlying storage
func (c *Catalog) Storage() TemplateStorage {
	return c.storage
}

// Publish saves source as the next version of name and returns the stored record.
func (c *Catalog) Publish(ctx context.Context, name, source string) (*StoredTemplate, error) {
	stored := &StoredTemplate{Name: name, Source: source}
	if err := c.storage.Save(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Template loads the latest version of name and parses it.
func (c *Catalog) Template(ctx context.Context, name string) (*Template, error) {
	stored, err := c.storage.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.parse(stored)
}

// TemplateVersion loads a specific version of name and parses it.
func (c *Catalog) TemplateVersion(ctx context.Context, name string, version int) (*Template, error) {
	stored, err := c.storage.GetVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return c.parse(stored)
}

// Expand expands the latest version of name.
func (c *Catalog) Expand(ctx context.Context, name string, vars map[string]any) (string, error) {
	tmpl, err := c.Template(ctx, name)
	if err != nil {
		return "", err
	}
	return tmpl.ExpandContext(ctx, vars)
}

// ExpandVersion expands a specific version of name.
func (c *Catalog) ExpandVersion(ctx context.Context, name string, version int, vars map[string]any) (string, error) {
	tmpl, err := c.TemplateVersion(ctx, name, version)
	if err != nil {
		return "", err
	}
	return tmpl.ExpandContext(ctx, vars)
}

func (c *Catalog) parse(stored *StoredTemplate) (*Template, error) {
	c.engine.logger.Debug(LogMsgCatalogLoad,
		zap.String(LogFieldName, stored.Name),
		zap.Int(LogFieldVersion, stored.Version))
	return c.engine.Parse(stored.Source)
}
