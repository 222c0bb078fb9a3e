package uritemplate

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var upperExpander = ExpanderFunc(func(v Variable, value any) (Fragment, error) {
	if value == nil {
		return Undefined(), nil
	}
	s, ok := value.(string)
	if !ok {
		return v.Render(value)
	}
	return v.Render(strings.ToUpper(s))
})

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		engine, err := New()
		require.NoError(t, err)
		require.NotNil(t, engine)
		assert.Equal(t, 0, engine.CacheSize())
		assert.Empty(t, engine.ListExpanders())
	})

	t.Run("with expanders", func(t *testing.T) {
		engine, err := New(
			WithExpander("upper", upperExpander),
			WithExpanderFactory("lazy", func() (Expander, error) { return upperExpander, nil }),
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"lazy", "upper"}, engine.ListExpanders())
	})

	t.Run("duplicate expander option fails", func(t *testing.T) {
		_, err := New(WithExpander("upper", upperExpander), WithExpander("upper", upperExpander))
		require.Error(t, err)
	})

	t.Run("logs through the given logger", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		_, err := New(WithLogger(zap.New(core)))
		require.NoError(t, err)
		assert.NotZero(t, logs.FilterMessage(LogMsgEngineCreated).Len())
	})
}

func TestEngine_ParseCache(t *testing.T) {
	engine := MustNew()

	first, err := engine.Parse("/users/{id}")
	require.NoError(t, err)
	second, err := engine.Parse("/users/{id}")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, engine.CacheSize())

	engine.FlushCache()
	assert.Equal(t, 0, engine.CacheSize())

	third, err := engine.Parse("/users/{id}")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestEngine_ParseCacheDisabled(t *testing.T) {
	engine := MustNew(WithCacheDisabled())

	first := must(engine.Parse("/a{b}"))
	second := must(engine.Parse("/a{b}"))
	assert.NotSame(t, first, second)
	assert.Equal(t, 0, engine.CacheSize())
}

func TestEngine_ParseErrorsAreNotCached(t *testing.T) {
	engine := MustNew()
	_, err := engine.Parse("{bad")
	require.Error(t, err)
	assert.Equal(t, 0, engine.CacheSize())
}

func TestEngine_Parameters(t *testing.T) {
	engine := MustNew(WithExpander("upper", upperExpander))

	t.Run("direct expander", func(t *testing.T) {
		tmpl, err := engine.Parse("/tags/{tag}{?q}", Param("tag", upperExpander))
		require.NoError(t, err)

		result, err := tmpl.Expand(map[string]any{"tag": "go lang", "q": "x"})
		require.NoError(t, err)
		assert.Equal(t, "/tags/GO%20LANG?q=x", result)
	})

	t.Run("named expander", func(t *testing.T) {
		tmpl, err := engine.Parse("{?tag}", NamedParam("tag", "upper"))
		require.NoError(t, err)

		result, err := tmpl.Expand(map[string]any{"tag": "a"})
		require.NoError(t, err)
		assert.Equal(t, "?tag=A", result)
	})

	t.Run("custom expander sees missing values", func(t *testing.T) {
		fallback := ExpanderFunc(func(v Variable, value any) (Fragment, error) {
			if value == nil {
				return v.Render("default")
			}
			return v.Render(value)
		})
		tmpl, err := engine.Parse("{/seg}", Param("seg", fallback))
		require.NoError(t, err)

		result, err := tmpl.Expand(nil)
		require.NoError(t, err)
		assert.Equal(t, "/default", result)
	})

	t.Run("variable context", func(t *testing.T) {
		var seen Variable
		spy := ExpanderFunc(func(v Variable, value any) (Fragment, error) {
			seen = v
			return Text(v.Encode("a b")), nil
		})
		tmpl, err := engine.Parse("{;ids*}", Param("ids", spy))
		require.NoError(t, err)

		result, err := tmpl.Expand(map[string]any{"ids": 1})
		require.NoError(t, err)
		assert.Equal(t, ";a%20b", result)
		assert.Equal(t, "ids", seen.Name())
		assert.True(t, seen.Explode())
		assert.Equal(t, -1, seen.Prefix())
		assert.Equal(t, ";", seen.Operator())
		assert.True(t, seen.Named())
	})

	t.Run("parameterized templates bypass the cache", func(t *testing.T) {
		engine := MustNew()
		_, err := engine.Parse("{x}", Param("x", upperExpander))
		require.NoError(t, err)
		assert.Equal(t, 0, engine.CacheSize())
	})

	errorTests := []struct {
		name   string
		param  Parameter
		lookup bool
	}{
		{"unnamed parameter", Param("", upperExpander), false},
		{"unknown variable", Param("nope", upperExpander), false},
		{"empty parameter", Parameter{Variable: "tag"}, false},
		{"missing named expander", NamedParam("tag", "missing"), true},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := engine.Parse("{tag}", tt.param)
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.Equal(t, tt.lookup, IsLookupError(err))
		})
	}
}

func TestEngine_ExpanderFactory(t *testing.T) {
	t.Run("instantiated once", func(t *testing.T) {
		var calls atomic.Int32
		engine := MustNew()
		require.NoError(t, engine.RegisterExpanderFactory("upper", func() (Expander, error) {
			calls.Add(1)
			return upperExpander, nil
		}))
		assert.True(t, engine.HasExpander("upper"))

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.Parse("{x}", NamedParam("x", "upper"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("failure is a lookup error", func(t *testing.T) {
		engine := MustNew()
		cause := errors.New("no config")
		require.NoError(t, engine.RegisterExpanderFactory("broken", func() (Expander, error) {
			return nil, cause
		}))

		_, err := engine.Parse("{x}", NamedParam("x", "broken"))
		require.Error(t, err)
		assert.True(t, IsLookupError(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestEngine_RegisterExpander(t *testing.T) {
	engine := MustNew()
	require.NoError(t, engine.RegisterExpander("upper", upperExpander))

	t.Run("first registration wins", func(t *testing.T) {
		other := ExpanderFunc(func(Variable, any) (Fragment, error) { return Text("other"), nil })
		err := engine.RegisterExpander("upper", other)
		require.Error(t, err)

		result, err := must(engine.Parse("{x}", NamedParam("x", "upper"))).Expand(map[string]any{"x": "a"})
		require.NoError(t, err)
		assert.Equal(t, "A", result)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		assert.Error(t, engine.RegisterExpander("", upperExpander))
	})

	t.Run("nil expander rejected", func(t *testing.T) {
		assert.Error(t, engine.RegisterExpander("nil", nil))
	})

	t.Run("must register panics on collision", func(t *testing.T) {
		assert.Panics(t, func() { engine.MustRegisterExpander("upper", upperExpander) })
	})
}

func TestEngine_NamedTemplates(t *testing.T) {
	engine := MustNew()

	require.NoError(t, engine.RegisterTemplate("users.get", "/users/{id}"))
	require.NoError(t, engine.RegisterTemplate("users.search", "/users{?q}"))

	assert.True(t, engine.HasTemplate("users.get"))
	assert.Equal(t, 2, engine.TemplateCount())
	assert.Equal(t, []string{"users.get", "users.search"}, engine.ListTemplates())

	result, err := engine.ExpandNamed("users.get", map[string]any{"id": 7})
	require.NoError(t, err)
	assert.Equal(t, "/users/7", result)

	t.Run("duplicate rejected", func(t *testing.T) {
		assert.Error(t, engine.RegisterTemplate("users.get", "/other"))
	})

	t.Run("empty and reserved names rejected", func(t *testing.T) {
		assert.Error(t, engine.RegisterTemplate("", "/x"))
		assert.Error(t, engine.RegisterTemplate("uritemplate.internal", "/x"))
	})

	t.Run("invalid source rejected", func(t *testing.T) {
		err := engine.RegisterTemplate("broken", "/x{")
		require.Error(t, err)
		assert.True(t, IsSyntaxError(err))
		assert.False(t, engine.HasTemplate("broken"))
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := engine.ExpandNamed("nope", nil)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("unregister", func(t *testing.T) {
		assert.True(t, engine.UnregisterTemplate("users.search"))
		assert.False(t, engine.UnregisterTemplate("users.search"))
		assert.Equal(t, 1, engine.TemplateCount())
	})

	t.Run("must register panics", func(t *testing.T) {
		assert.Panics(t, func() { engine.MustRegisterTemplate("users.get", "/x") })
	})
}

func must(tmpl *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return tmpl
}
