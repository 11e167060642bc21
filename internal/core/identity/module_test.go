package identity

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Load 测试 Fx 模块加载
func TestModule_Load(t *testing.T) {
	var loaded interfaces.Identity

	app := fxtest.New(t,
		Module(),
		fx.Populate(&loaded),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, loaded)
	assert.NoError(t, loaded.PeerID().Validate())
}

// TestModule_InjectedKey 测试注入私钥优先
func TestModule_InjectedKey(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	expected, err := New(priv)
	require.NoError(t, err)

	var loaded interfaces.Identity
	app := fxtest.New(t,
		fx.Provide(fx.Annotated{
			Name:   "identity_key",
			Target: func() crypto.PrivKey { return priv },
		}),
		Module(),
		fx.Populate(&loaded),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, expected.PeerID(), loaded.PeerID())
}

// TestProvideServices_Config 测试按配置生成
func TestProvideServices_Config(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Identity = cfg.Identity.WithKeyType(config.KeyTypeSecp256k1)

	out, err := ProvideServices(ModuleInput{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, "Secp256k1", out.Identity.PrivateKey().Type().String())

	cfg.Identity = cfg.Identity.WithKeyType("bogus")
	_, err = ProvideServices(ModuleInput{Config: cfg})
	assert.Error(t, err)
}
