package perms

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func testPrincipals() Principals {
	return Principals{
		GuildID:     "guild-1",
		BotID:       "bot-1",
		RequesterID: "requester-1",
		ResponderID: "responder-1",
		RoleIDs:     []string{"role-a", "role-b"},
	}
}

// byID indexes an overwrite map for assertion.
func byID(overwrites []*discordgo.PermissionOverwrite) map[string]*discordgo.PermissionOverwrite {
	m := make(map[string]*discordgo.PermissionOverwrite, len(overwrites))
	for _, o := range overwrites {
		m[o.ID] = o
	}
	return m
}

func TestCreated(t *testing.T) {
	got := byID(Created(testPrincipals()))

	// Channel hidden from the guild at large.
	require.Equal(t, int64(0), got["guild-1"].Allow)
	require.Equal(t, int64(maskNothing), got["guild-1"].Deny)

	// Bot and requester in, pool visible so someone can claim.
	require.Equal(t, int64(maskBot), got["bot-1"].Allow)
	require.Equal(t, int64(maskUser), got["requester-1"].Allow)
	require.Equal(t, int64(maskUser), got["role-a"].Allow)
	require.Equal(t, int64(maskUser), got["role-b"].Allow)

	// No responder grant before a claim.
	require.NotContains(t, got, "responder-1")
}

func TestClaimed(t *testing.T) {
	got := byID(Claimed(testPrincipals()))

	require.Equal(t, int64(maskUser), got["requester-1"].Allow)
	require.Equal(t, int64(maskUser), got["responder-1"].Allow)

	// Pool shut out once claimed.
	require.Equal(t, int64(maskNothing), got["role-a"].Deny)
	require.Equal(t, int64(maskNothing), got["role-b"].Deny)
}

func TestUnclaimed(t *testing.T) {
	p := testPrincipals()
	p.ResponderID = ""
	p.FormerResponderID = "responder-1"

	got := byID(Unclaimed(p))

	// Former responder cleared, pool re-opened.
	require.Equal(t, int64(0), got["responder-1"].Allow)
	require.Equal(t, int64(0), got["responder-1"].Deny)
	require.Equal(t, int64(maskUser), got["role-a"].Allow)
	require.Equal(t, int64(maskUser), got["role-b"].Allow)
}

// Walks the scenario of an unclaim followed by a fresh claim: the pool sees
// the channel between responders and is shut out again once the new
// responder accepts.
func TestUnclaimThenReclaim(t *testing.T) {
	p := testPrincipals()
	p.ResponderID = ""
	p.FormerResponderID = "responder-1"

	interim := byID(Unclaimed(p))
	require.Equal(t, int64(maskUser), interim["role-a"].Allow)
	require.Equal(t, int64(0), interim["responder-1"].Allow)

	p.ResponderID = "responder-2"
	p.FormerResponderID = ""
	final := byID(Claimed(p))
	require.Equal(t, int64(maskUser), final["responder-2"].Allow)
	require.Equal(t, int64(maskNothing), final["role-a"].Deny)
	require.NotContains(t, final, "responder-1")
}

func TestReviewTransitions(t *testing.T) {
	p := testPrincipals()

	opened := byID(ReviewOpened(p))
	require.Equal(t, int64(maskUser), opened["role-a"].Allow)
	require.Equal(t, int64(maskUser), opened["responder-1"].Allow)

	p.FormerResponderID = p.ResponderID
	p.ResponderID = "reviewer-1"
	claimed := byID(ReviewClaimed(p))
	require.Equal(t, int64(maskUser), claimed["reviewer-1"].Allow)
	require.Equal(t, int64(maskUser), claimed["responder-1"].Allow)
	require.Equal(t, int64(maskNothing), claimed["role-a"].Deny)
}

func TestOverseerIncludedWhenConfigured(t *testing.T) {
	p := testPrincipals()
	p.OverseerRoleID = "role-overseer"

	got := byID(Claimed(p))
	require.Equal(t, int64(maskOverseer), got["role-overseer"].Allow)

	p.OverseerRoleID = ""
	require.NotContains(t, byID(Claimed(p)), "role-overseer")
}

func TestMissing(t *testing.T) {
	tests := []struct {
		name     string
		held     int64
		required int64
		want     []string
	}{
		{
			name:     "AllHeld",
			held:     discordgo.PermissionAll,
			required: CategoryRequired,
			want:     nil,
		},
		{
			name:     "NoneHeld",
			held:     0,
			required: LogRequired,
			want:     []string{"Attach Files", "Read Messages", "Send Messages"},
		},
		{
			name:     "PartiallyHeld",
			held:     discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			required: SupportRequired,
			want:     []string{"Add Reactions", "Manage Messages"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Missing(tt.held, tt.required))
		})
	}
}
