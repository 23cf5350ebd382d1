package testutil

import (
	"bytes"
	"encoding/binary"

	"watchme-asr/internal/app/model"
)

// Key builds a work item key
func Key(deviceID, date, block string) model.WorkItemKey {
	return model.WorkItemKey{DeviceID: deviceID, Date: date, TimeBlock: block}
}

// PendingItem builds a pending work item
func PendingItem(deviceID, date, block string) model.WorkItem {
	return model.WorkItem{Key: Key(deviceID, date, block), Status: model.StatusPending}
}

// CompletedItem builds a completed work item with text
func CompletedItem(deviceID, date, block, text string) model.WorkItem {
	return model.WorkItem{Key: Key(deviceID, date, block), Status: model.StatusCompleted, Transcription: &text}
}

// WAV returns a minimal 16 kHz mono PCM WAV file holding samples zero samples
func WAV(samples int) []byte {
	const sampleRate = 16000
	dataSize := uint32(samples * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
