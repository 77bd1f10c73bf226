package parse

import (
	"io"
	"log/slog"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"openfahrplan.dev/transit/model"
	"openfahrplan.dev/transit/storage"
)

type TransferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    int    `csv:"transfer_type"`
	MinTransferTime int64  `csv:"min_transfer_time"`
}

// ParseTransfers writes transfers rows. Rows referencing unknown
// stops are dropped, not fatal: plenty of real feeds ship transfers
// for stops they no longer list.
func ParseTransfers(
	writer storage.FeedWriter,
	data io.Reader,
	stops map[string]bool,
) error {
	dropped := 0

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(tr *TransferCSV) error {
		i += 1
		if !stops[tr.FromStopID] || !stops[tr.ToStopID] {
			dropped++
			return nil
		}
		if tr.MinTransferTime < 0 {
			dropped++
			return nil
		}

		err := writer.WriteTransfer(model.Transfer{
			FromStopID:      tr.FromStopID,
			ToStopID:        tr.ToStopID,
			Type:            model.TransferType(tr.TransferType),
			MinTransferTime: tr.MinTransferTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing transfer (row %d)", i+1)
		}

		return nil
	})

	if err != nil {
		return errors.Wrap(err, "unmarshaling transfers csv")
	}

	if dropped > 0 {
		slog.Info("dropped transfers referencing unknown stops", "count", dropped)
	}

	return nil
}
