package crowdfund

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/core/filter"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	domainledger "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/engine"
)

// Amounts and campaign ids travel as decimal strings so 128-bit values and
// ids above 2^53 survive JSON number handling.

func field(in *structpb.Struct, name string) *structpb.Value {
	if in == nil {
		return nil
	}
	return in.GetFields()[name]
}

func stringField(in *structpb.Struct, name string) string {
	value := field(in, name)
	if value == nil {
		return ""
	}
	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(kind.StringValue)
	case *structpb.Value_NumberValue:
		return numberString(kind.NumberValue)
	default:
		return ""
	}
}

// maxExactNumber is the largest magnitude below which every integer has an
// exact float64 representation.
const maxExactNumber = 1 << 53

// numberString renders a JSON number as decimal digits only when it is an
// integer float64 holds exactly. Anything else keeps its exponent or
// fraction so the integer parsers downstream reject it.
func numberString(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) <= maxExactNumber {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func requiredString(in *structpb.Struct, name string) (string, error) {
	value := stringField(in, name)
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return value, nil
}

func identityField(in *structpb.Struct, name string) (identity.ID, error) {
	value, err := requiredString(in, name)
	if err != nil {
		return "", err
	}
	id, err := identity.Parse(value)
	if err != nil {
		return "", status.Errorf(codes.InvalidArgument, "%s is not a valid identity", name)
	}
	return id, nil
}

func amountField(in *structpb.Struct, name string) (amount.Amount, error) {
	value, err := requiredString(in, name)
	if err != nil {
		return amount.Amount{}, err
	}
	parsed, err := amount.Parse(value)
	if err != nil {
		return amount.Amount{}, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return parsed, nil
}

func campaignIDField(in *structpb.Struct) (uint64, error) {
	value, err := requiredString(in, "campaign_id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "campaign_id %q must be an unsigned integer", value)
	}
	return id, nil
}

// unixField reads a timestamp in unix seconds.
func unixField(in *structpb.Struct, name string) (time.Time, error) {
	value, err := requiredString(in, name)
	if err != nil {
		return time.Time{}, err
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s %q must be unix seconds", name, value)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

func intField(in *structpb.Struct, name string) int32 {
	value := field(in, name)
	if value == nil {
		return 0
	}
	number := value.GetNumberValue()
	if number <= 0 {
		return 0
	}
	if number > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(number)
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func assetFields(asset domainledger.Asset) map[string]any {
	return map[string]any{
		"asset":        asset.ID.String(),
		"admin":        asset.Admin.String(),
		"name":         asset.Name,
		"symbol":       asset.Symbol,
		"decimals":     asset.Decimals,
		"total_supply": asset.TotalSupply.String(),
		"created_at":   asset.CreatedAt.UTC().Unix(),
	}
}

func snapshotFields(s engine.Snapshot) map[string]any {
	c := s.Campaign
	donors := make([]string, 0, len(c.Donations))
	for donor := range c.Donations {
		donors = append(donors, donor.String())
	}
	sort.Strings(donors)
	donations := make(map[string]any, len(donors))
	for _, donor := range donors {
		donations[donor] = c.Donation(identity.ID(donor)).String()
	}
	return map[string]any{
		"campaign_id":         formatID(c.ID),
		"owner":               c.Owner.String(),
		"goal":                c.Goal.String(),
		"deadline":            c.Deadline.UTC().Unix(),
		"asset":               c.Asset.String(),
		"raised":              c.Raised.String(),
		"donations":           donations,
		"created_at":          c.CreatedAt.UTC().Unix(),
		"status":              string(s.Status),
		"ended":               s.Ended,
		"goal_reached":        s.GoalReached,
		"progress_percentage": s.Progress.String(),
		"observed_at":         s.ObservedAt.Unix(),
	}
}

func campaignRecord(s engine.Snapshot) filter.Record {
	c := s.Campaign
	return filter.Record{
		filter.FieldCampaignID: int64(c.ID),
		filter.FieldOwner:      c.Owner.String(),
		filter.FieldAsset:      c.Asset.String(),
		filter.FieldStatus:     string(s.Status),
		filter.FieldDeadline:   c.Deadline.UTC(),
		filter.FieldCreatedAt:  c.CreatedAt.UTC(),
	}
}

func eventFields(evt event.Event) (map[string]any, error) {
	var payload map[string]any
	if len(evt.PayloadJSON) > 0 {
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return nil, status.Errorf(codes.Internal, "decode %s payload: %v", evt.Type, err)
		}
	}
	return map[string]any{
		"stream":     evt.Stream,
		"seq":        strconv.FormatUint(evt.Seq, 10),
		"type":       string(evt.Type),
		"timestamp":  evt.Timestamp.UTC().Unix(),
		"actor_id":   evt.ActorID,
		"payload":    payload,
		"hash":       evt.Hash,
		"prev_hash":  evt.PrevHash,
		"chain_hash": evt.ChainHash,
	}, nil
}
