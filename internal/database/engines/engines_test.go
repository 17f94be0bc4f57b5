package engines

import (
	"context"
	"testing"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistersEveryEngine(t *testing.T) {
	r := Default(nil)

	for _, e := range database.AllEngines() {
		b, err := r.Lookup(e)
		require.NoError(t, err, "engine %s is not registered", e)

		sb, ok := b.(*database.SQLBackend)
		require.True(t, ok)
		assert.Equal(t, e, sb.Engine())
	}
	assert.Len(t, r.Engines(), len(database.AllEngines()))
}

func TestDefault_UnknownEngine(t *testing.T) {
	r := Default(nil)
	conn := database.Connection{Name: "legacy", Engine: "DB2", ConnectionString: "DATABASE=sample;HOSTNAME=db2"}

	_, err := r.GenerateSchema(context.Background(), conn)
	assert.True(t, errs.IsUnsupported(err))

	_, err = r.Execute(context.Background(), conn, "SELECT 1 FROM SYSIBM.SYSDUMMY1")
	assert.True(t, errs.IsUnsupported(err))
}
