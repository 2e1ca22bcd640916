package session

import (
	"context"

	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/propval"
	"github.com/ashenvale/charstate/internal/stringutil"
)

// clientStringReadBytes is the approximate buffer size
// Utils.retrieve_string guesses for the server-name and language fields.
const clientStringReadBytes = 80

// ClientData is the client instance's global state (§4.O): the connected
// server's name, the client's configured language, and the account- and
// world-scoped property sets every character shares, grounded on
// ClientData.load_client_data.
type ClientData struct {
	ServerName        string
	Language          string
	AccountProperties *propval.PropertySet
	WorldProperties   *propval.PropertySet
}

// LoadClientData resolves the client instance at layout.ClientDataAddr
// and reads its server name, language, and account/world property sets.
//
// layout.AccountDataAddr is deliberately not read here: the original
// resolves an "account data" static address equal to the client data
// address (config.py sets one from the other) but never dereferences it
// anywhere in its own client-data load — ClientData.load_client_data
// only ever uses client_data_address. Matching that, this loader reads
// through ClientDataAddr alone.
func LoadClientData(ctx context.Context, mem procmem.ProcessMemory, layout *procmem.Layout, props *propval.LiveDecoder) (*ClientData, error) {
	clientInstanceAddr, err := mem.ReadPointer(ctx, layout.ClientDataAddr)
	if err != nil {
		return nil, err
	}

	serverName, err := readClientString(ctx, mem, clientInstanceAddr+layout.ClientServerNameOffset())
	if err != nil {
		return nil, err
	}
	language, err := readClientString(ctx, mem, clientInstanceAddr+layout.ClientLanguageOffset())
	if err != nil {
		return nil, err
	}

	accountPropertyAddr, err := mem.ReadPointer(ctx, clientInstanceAddr+layout.ClientAccountPropertyOffset())
	if err != nil {
		return nil, err
	}
	accountProps, err := props.HandleProperties(ctx, accountPropertyAddr, layout.AccountPropertyDataOffset())
	if err != nil {
		return nil, err
	}

	worldPropertyAddr, err := mem.ReadPointer(ctx, clientInstanceAddr+layout.ClientWorldPropertyOffset())
	if err != nil {
		return nil, err
	}
	worldProps, err := props.HandleProperties(ctx, worldPropertyAddr, layout.WorldPropertyDataOffset())
	if err != nil {
		return nil, err
	}

	return &ClientData{
		ServerName:        serverName,
		Language:          language,
		AccountProperties: accountProps,
		WorldProperties:   worldProps,
	}, nil
}

func readClientString(ctx context.Context, mem procmem.ProcessMemory, fieldAddr uint64) (string, error) {
	ptr, err := mem.ReadPointer(ctx, fieldAddr)
	if err != nil {
		return "", err
	}
	return stringutil.ReadApproxWideString(ctx, mem, ptr, clientStringReadBytes)
}
