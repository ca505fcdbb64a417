package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName gRPC 服務全名
const ServiceName = "bank.v1.AccountService"

const (
	MethodDeposit    = "/" + ServiceName + "/Deposit"
	MethodWithdraw   = "/" + ServiceName + "/Withdraw"
	MethodGetBalance = "/" + ServiceName + "/GetBalance"
	MethodPayment    = "/" + ServiceName + "/Payment"
	MethodPending    = "/" + ServiceName + "/Pending"
	MethodQuote      = "/" + ServiceName + "/Quote"
	MethodSchedule   = "/" + ServiceName + "/Schedule"
)

// AccountServiceServer 帳戶服務
// 訊息使用 protobuf well-known types，請求欄位放在 structpb.Struct 裡
//
//	Deposit    {operation_id?, amount}                  -> Int64Value(balance)
//	Withdraw   {operation_id?, amount}                  -> {ok, balance}
//	GetBalance Empty                                    -> Int64Value(balance)
//	Payment    {total_amount, interest, npayments}      -> DoubleValue
//	Pending    {amount, interest, npayments, month}     -> DoubleValue
//	Quote      {total_amount, interest, npayments}      -> {payment, total_payment, total_interest}
//	Schedule   {total_amount, interest, npayments}      -> {installments: [...]}
type AccountServiceServer interface {
	Deposit(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Payment(context.Context, *structpb.Struct) (*wrapperspb.DoubleValue, error)
	Pending(context.Context, *structpb.Struct) (*wrapperspb.DoubleValue, error)
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Schedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAccountServiceServer 註冊到 gRPC Server
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}

// AccountServiceDesc 手寫的 ServiceDesc (等同 protoc-gen-go-grpc 的產出)
var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Deposit", Handler: depositHandler},
		{MethodName: "Withdraw", Handler: withdrawHandler},
		{MethodName: "GetBalance", Handler: getBalanceHandler},
		{MethodName: "Payment", Handler: paymentHandler},
		{MethodName: "Pending", Handler: pendingHandler},
		{MethodName: "Quote", Handler: quoteHandler},
		{MethodName: "Schedule", Handler: scheduleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bank/v1/account.proto",
}

func depositHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Deposit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDeposit}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Deposit(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func withdrawHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Withdraw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWithdraw}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Withdraw(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getBalanceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetBalance}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).GetBalance(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func paymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Payment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPayment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Payment(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func pendingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Pending(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPending}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Pending(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func quoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Quote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodQuote}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Quote(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func scheduleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Schedule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSchedule}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Schedule(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
