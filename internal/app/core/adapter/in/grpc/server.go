package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
)

// maxSafeInteger float64 可以精確表示的最大整數 (2^53)
const maxSafeInteger = 1 << 53

type GrpcServer struct {
	core *usecase.CoreUseCase
	loan *usecase.LoanUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase, loan *usecase.LoanUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
		loan: loan,
	}
}

func (s *GrpcServer) Deposit(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error) {
	// 1. 解析請求
	id, err := operationID(req)
	if err != nil {
		return nil, err
	}
	amount, err := intField(req, "amount")
	if err != nil {
		return nil, err
	}

	// 2. 存款，錯誤轉成對應的 status code
	balance, err := s.core.Deposit(ctx, id, amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(balance), nil
}

// Withdraw 提款失敗 (餘額不足、金額為負) 以 ok=false 回傳，不是錯誤
func (s *GrpcServer) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := operationID(req)
	if err != nil {
		return nil, err
	}
	amount, err := intField(req, "amount")
	if err != nil {
		return nil, err
	}

	ok, balance, err := s.core.Withdraw(ctx, id, amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"ok":      ok,
		"balance": balance,
	})
}

func (s *GrpcServer) GetBalance(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	balance, err := s.core.GetBalance(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(balance), nil
}

func (s *GrpcServer) Payment(_ context.Context, req *structpb.Struct) (*wrapperspb.DoubleValue, error) {
	total, interest, n, err := loanTerms(req)
	if err != nil {
		return nil, err
	}
	p, err := s.loan.Payment(total, interest, n)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Double(p), nil
}

func (s *GrpcServer) Pending(_ context.Context, req *structpb.Struct) (*wrapperspb.DoubleValue, error) {
	amount, err := numberField(req, "amount")
	if err != nil {
		return nil, err
	}
	interest, err := numberField(req, "interest")
	if err != nil {
		return nil, err
	}
	n, err := intField(req, "npayments")
	if err != nil {
		return nil, err
	}
	month, err := intField(req, "month")
	if err != nil {
		return nil, err
	}

	v, err := s.loan.Pending(amount, interest, int(n), int(month))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Double(v), nil
}

func (s *GrpcServer) Quote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	total, interest, n, err := loanTerms(req)
	if err != nil {
		return nil, err
	}
	q, err := s.loan.Quote(ctx, total, interest, n)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"payment":        q.Payment,
		"total_payment":  q.TotalPayment,
		"total_interest": q.TotalInterest,
	})
}

func (s *GrpcServer) Schedule(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	total, interest, n, err := loanTerms(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.loan.Schedule(total, interest, n)
	if err != nil {
		return nil, toStatus(err)
	}

	installments := make([]any, 0, len(rows))
	for _, row := range rows {
		installments = append(installments, map[string]any{
			"month":     row.Month,
			"payment":   row.Payment,
			"interest":  row.Interest,
			"principal": row.Principal,
			"pending":   row.Pending,
		})
	}
	return structpb.NewStruct(map[string]any{"installments": installments})
}

// toStatus 將 domain 錯誤轉成 gRPC status
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrLedgerStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func loanTerms(req *structpb.Struct) (float64, float64, int, error) {
	total, err := numberField(req, "total_amount")
	if err != nil {
		return 0, 0, 0, err
	}
	interest, err := numberField(req, "interest")
	if err != nil {
		return 0, 0, 0, err
	}
	n, err := intField(req, "npayments")
	if err != nil {
		return 0, 0, 0, err
	}
	return total, interest, int(n), nil
}

func operationID(req *structpb.Struct) (uuid.UUID, error) {
	v, ok := req.GetFields()["operation_id"]
	if !ok {
		return uuid.Nil, nil
	}
	if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
		return uuid.Nil, status.Error(codes.InvalidArgument, "operation_id: must be a string")
	}
	if v.GetStringValue() == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v.GetStringValue())
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "operation_id: %v", err)
	}
	return id, nil
}

func numberField(req *structpb.Struct, name string) (float64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s: missing", name)
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s: must be a number", name)
	}
	return v.GetNumberValue(), nil
}

// intField 整數欄位，必須是 ±2^53 以內的整數
func intField(req *structpb.Struct, name string) (int64, error) {
	f, err := numberField(req, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > maxSafeInteger {
		return 0, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: must be an integer", name))
	}
	return int64(f), nil
}

var _ AccountServiceServer = (*GrpcServer)(nil)
