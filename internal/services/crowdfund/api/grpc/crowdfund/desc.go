package crowdfund

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crowdfund.v1.CrowdfundService"

// Method names.
const (
	MethodInitializeAsset    = "InitializeAsset"
	MethodGetAsset           = "GetAsset"
	MethodGetBalance         = "GetBalance"
	MethodTransfer           = "Transfer"
	MethodCreateCampaign     = "CreateCampaign"
	MethodDonate             = "Donate"
	MethodRefund             = "Refund"
	MethodGetCampaign        = "GetCampaign"
	MethodListCampaigns      = "ListCampaigns"
	MethodGetDonation        = "GetDonation"
	MethodGetProgress        = "GetProgress"
	MethodGetNextCampaignID  = "GetNextCampaignID"
	MethodListCampaignEvents = "ListCampaignEvents"
	MethodListBalances       = "ListBalances"
	MethodAuditCampaign      = "AuditCampaign"
)

// FullMethod returns the "/service/method" path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CrowdfundServer is the server API for the crowdfund service.
type CrowdfundServer interface {
	InitializeAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Donate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refund(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCampaigns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDonation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProgress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNextCampaignID(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCampaignEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBalances(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AuditCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ CrowdfundServer = (*Service)(nil)

type unaryMethod func(CrowdfundServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(CrowdfundServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the crowdfund service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CrowdfundServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(MethodInitializeAsset, CrowdfundServer.InitializeAsset),
		methodDesc(MethodGetAsset, CrowdfundServer.GetAsset),
		methodDesc(MethodGetBalance, CrowdfundServer.GetBalance),
		methodDesc(MethodTransfer, CrowdfundServer.Transfer),
		methodDesc(MethodCreateCampaign, CrowdfundServer.CreateCampaign),
		methodDesc(MethodDonate, CrowdfundServer.Donate),
		methodDesc(MethodRefund, CrowdfundServer.Refund),
		methodDesc(MethodGetCampaign, CrowdfundServer.GetCampaign),
		methodDesc(MethodListCampaigns, CrowdfundServer.ListCampaigns),
		methodDesc(MethodGetDonation, CrowdfundServer.GetDonation),
		methodDesc(MethodGetProgress, CrowdfundServer.GetProgress),
		methodDesc(MethodGetNextCampaignID, CrowdfundServer.GetNextCampaignID),
		methodDesc(MethodListCampaignEvents, CrowdfundServer.ListCampaignEvents),
		methodDesc(MethodListBalances, CrowdfundServer.ListBalances),
		methodDesc(MethodAuditCampaign, CrowdfundServer.AuditCampaign),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crowdfund/v1/crowdfund.proto",
}

// RegisterCrowdfundServer registers srv with registrar.
func RegisterCrowdfundServer(registrar grpc.ServiceRegistrar, srv CrowdfundServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// Client calls the crowdfund service over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
