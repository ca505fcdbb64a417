package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
)

// AccountClient 帳戶服務的客戶端，conn 通常來自 pkg/grpc.Pool
type AccountClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountClient(cc grpc.ClientConnInterface) *AccountClient {
	return &AccountClient{cc: cc}
}

// Deposit 存款，id 為 uuid.Nil 時由伺服器產生
func (c *AccountClient) Deposit(ctx context.Context, id uuid.UUID, amount int64, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, MethodDeposit, operationRequest(id, amount), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// Withdraw 提款
//
// 回傳:
//
//	bool: 是否扣款成功
//	int64: 操作後餘額
//	error: gRPC 錯誤
func (c *AccountClient) Withdraw(ctx context.Context, id uuid.UUID, amount int64, opts ...grpc.CallOption) (bool, int64, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodWithdraw, operationRequest(id, amount), out, opts...); err != nil {
		return false, 0, err
	}
	fields := out.GetFields()
	return fields["ok"].GetBoolValue(), int64(fields["balance"].GetNumberValue()), nil
}

func (c *AccountClient) GetBalance(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, MethodGetBalance, &emptypb.Empty{}, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *AccountClient) Payment(ctx context.Context, totalAmount, interest float64, npayments int, opts ...grpc.CallOption) (float64, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, MethodPayment, loanRequest(totalAmount, interest, npayments), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *AccountClient) Pending(ctx context.Context, amount, interest float64, npayments, month int, opts ...grpc.CallOption) (float64, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"amount":    structpb.NewNumberValue(amount),
		"interest":  structpb.NewNumberValue(interest),
		"npayments": structpb.NewNumberValue(float64(npayments)),
		"month":     structpb.NewNumberValue(float64(month)),
	}}
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, MethodPending, in, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *AccountClient) Quote(ctx context.Context, totalAmount, interest float64, npayments int, opts ...grpc.CallOption) (domain.Quote, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodQuote, loanRequest(totalAmount, interest, npayments), out, opts...); err != nil {
		return domain.Quote{}, err
	}
	fields := out.GetFields()
	return domain.Quote{
		Payment:       fields["payment"].GetNumberValue(),
		TotalPayment:  fields["total_payment"].GetNumberValue(),
		TotalInterest: fields["total_interest"].GetNumberValue(),
	}, nil
}

func (c *AccountClient) Schedule(ctx context.Context, totalAmount, interest float64, npayments int, opts ...grpc.CallOption) ([]domain.Installment, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSchedule, loanRequest(totalAmount, interest, npayments), out, opts...); err != nil {
		return nil, err
	}
	values := out.GetFields()["installments"].GetListValue().GetValues()
	rows := make([]domain.Installment, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		rows = append(rows, domain.Installment{
			Month:     int(f["month"].GetNumberValue()),
			Payment:   f["payment"].GetNumberValue(),
			Interest:  f["interest"].GetNumberValue(),
			Principal: f["principal"].GetNumberValue(),
			Pending:   f["pending"].GetNumberValue(),
		})
	}
	return rows, nil
}

func operationRequest(id uuid.UUID, amount int64) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"amount": structpb.NewNumberValue(float64(amount)),
	}
	if id != uuid.Nil {
		fields["operation_id"] = structpb.NewStringValue(id.String())
	}
	return &structpb.Struct{Fields: fields}
}

func loanRequest(totalAmount, interest float64, npayments int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"total_amount": structpb.NewNumberValue(totalAmount),
		"interest":     structpb.NewNumberValue(interest),
		"npayments":    structpb.NewNumberValue(float64(npayments)),
	}}
}
