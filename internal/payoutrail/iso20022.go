package payoutrail

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/config"
)

// ISO20022Rail posts pacs.008 credit transfers to a payment provider.
type ISO20022Rail struct {
	baseURL   string
	apiKey    string
	debtorBIC string
	client    *http.Client
	logger    *zap.Logger
	now       func() time.Time
}

func NewISO20022Rail(cfg *config.RailConfig, logger *zap.Logger) *ISO20022Rail {
	return &ISO20022Rail{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		debtorBIC: cfg.DebtorBIC,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger.Named("payoutrail"),
		now:       time.Now,
	}
}

type transferResponse struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

func (r *ISO20022Rail) Transfer(ctx context.Context, req TransferRequest) (*TransferReceipt, error) {
	doc := r.CreatePacs008(req)
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal pacs.008: %v", ErrTransferRejected, err)
	}
	payload := append([]byte(xml.Header), body...)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}
	httpReq.Header.Set("Content-Type", "application/xml")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", ErrTransferUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		r.logger.Warn("transfer rejected",
			zap.String("beneficiary_id", req.BeneficiaryID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: provider returned %d", ErrTransferRejected, resp.StatusCode)
	}

	var out transferResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.TransferID == "" {
		return nil, fmt.Errorf("%w: unreadable provider response", ErrTransferUnavailable)
	}

	return &TransferReceipt{
		TransferID: out.TransferID,
		Status:     out.Status,
		AcceptedAt: r.now().UTC(),
	}, nil
}

// CreatePacs008 builds a single-transaction FIToFICustomerCreditTransfer.
func (r *ISO20022Rail) CreatePacs008(req TransferRequest) *pacs_v08.FIToFICustomerCreditTransferV08 {
	msgID := uuid.New().String()
	creDtTm := r.now()
	settlementDate := creDtTm
	value := decimal.New(req.Amount, -2).InexactFloat64()
	ref := max35(req.IdempotencyKey)
	reference := req.Reference
	if reference == "" {
		reference = ref
	}

	return &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(max35(msgID)),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(req.Currency),
				Value: value,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(ref)}[0],
					EndToEndId: common.Max35Text(max35(reference)),
					TxId:       &[]common.Max35Text{common.Max35Text(ref)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(req.Currency),
					Value: value,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(r.debtorBIC)}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text("Doorline")}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						ClrSysMmbId: &pacs_v08.ClearingSystemMemberIdentification2{
							MmbId: common.Max35Text(max35(req.BeneficiaryID)),
						},
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(req.BeneficiaryID)}[0],
				},
			},
		},
	}
}

func max35(s string) string {
	if len(s) > 35 {
		return s[:35]
	}
	return s
}
