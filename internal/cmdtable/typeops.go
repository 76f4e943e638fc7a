package cmdtable

import (
	"context"
	"strconv"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
)

func registerTypeHandlers(m map[string]handlerFunc) {
	m["PUTTEXT"] = cmdPutText
	m["PUTINT"] = cmdPutInt
	m["PUTDOUBLE"] = cmdPutDouble
	m["PUTBOOL"] = cmdPutBool
	m["PUTCOUNTER"] = cmdPutCounter
	m["PUTTIMESTAMP"] = cmdPutTimestamp
	m["INCCOUNTER"] = cmdIncCounter
	m["GETTEXT"] = cmdGetText
	m["GETINT"] = cmdGetInt
	m["GETDOUBLE"] = cmdGetDouble
	m["GETBOOL"] = cmdGetBool
	m["GETCOUNTER"] = cmdGetCounter
	m["GETTIMESTAMP"] = cmdGetTimestamp
	m["SPLICETEXT"] = cmdSpliceText
	m["PUTDIFF"] = cmdPutDiff
	m["CREATELIST"] = cmdCreateList
	m["APPENDTEXT"] = cmdAppendText
	m["APPENDINT"] = cmdAppendInt
	m["APPENDDOUBLE"] = cmdAppendDouble
	m["APPENDBOOL"] = cmdAppendBool
	m["LISTLEN"] = cmdListLen
	m["MAPLEN"] = cmdMapLen
	m["MARKCREATE"] = cmdMarkCreate
	m["MARKCLEAR"] = cmdMarkClear
	m["MARKS"] = cmdMarks
}

func parseInt(name, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, amerr.Newf(amerr.BadArgs, "%s must be an integer, got %q", name, s).Wrap(err)
	}
	return v, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, amerr.Newf(amerr.BadArgs, "%s must be a number, got %q", name, s).Wrap(err)
	}
	return v, nil
}

func parseBool(name, s string) (bool, error) {
	switch s {
	case "1", "true", "TRUE", "True":
		return true, nil
	case "0", "false", "FALSE", "False":
		return false, nil
	default:
		return false, amerr.Newf(amerr.BadArgs, "%s must be a boolean, got %q", name, s)
	}
}

// parseMarkValue type-detects a mark's value token the way the command
// line has to, since every argument arrives as a string: "true"/"false"
// become bool, a parseable int64 becomes int, a parseable float64
// becomes double, and anything else stays a string (spec.md §4.2 "Value
// types allowed: text/int/double/bool").
func parseMarkValue(s string) any {
	switch s {
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func cmdPutText(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTTEXT", args, 3); err != nil {
		return nil, err
	}
	key, path, value := args[0], args[1], args[2]
	err := t.mutate(ctx, "PUTTEXT", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutText(path, value)
	})
	return okOrErr(err)
}

func cmdPutInt(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTINT", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseInt("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "PUTINT", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutInt(path, v)
	})
	return okOrErr(err)
}

func cmdPutDouble(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTDOUBLE", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseFloat("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "PUTDOUBLE", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutDouble(path, v)
	})
	return okOrErr(err)
}

func cmdPutBool(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTBOOL", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseBool("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "PUTBOOL", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutBool(path, v)
	})
	return okOrErr(err)
}

func cmdPutCounter(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTCOUNTER", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseInt("initial", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "PUTCOUNTER", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutCounter(path, v)
	})
	return okOrErr(err)
}

func cmdPutTimestamp(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTTIMESTAMP", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseInt("millis", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "PUTTIMESTAMP", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutTimestamp(path, v)
	})
	return okOrErr(err)
}

func cmdIncCounter(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("INCCOUNTER", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	delta, err := parseInt("delta", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "INCCOUNTER", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.IncCounter(path, delta)
	})
	return okOrErr(err)
}

func getDoc(ctx context.Context, t *Table, key string) (*amdoc.Document, error) {
	d, ok, err := t.Registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", key)
	}
	return d, nil
}

func cmdGetText(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETTEXT", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetText(args[1])
	return nullable(v, ok, err)
}

func cmdGetInt(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETINT", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetInt(args[1])
	return nullable(v, ok, err)
}

func cmdGetDouble(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETDOUBLE", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetDouble(args[1])
	return nullable(v, ok, err)
}

// cmdGetBool renders the boolean as the host's native 0/1 integer rather
// than a Go bool (spec.md §4.2, §6: "booleans externally return 1/0").
func cmdGetBool(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETBOOL", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetBool(args[1])
	n := 0
	if v {
		n = 1
	}
	return nullable(n, ok, err)
}

func cmdGetCounter(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETCOUNTER", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetCounter(args[1])
	return nullable(v, ok, err)
}

func cmdGetTimestamp(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETTIMESTAMP", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.GetTimestamp(args[1])
	return nullable(v, ok, err)
}

func cmdSpliceText(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("SPLICETEXT", args, 5); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	pos, err := parseInt("pos", args[2])
	if err != nil {
		return nil, err
	}
	del, err := parseInt("del", args[3])
	if err != nil {
		return nil, err
	}
	text := args[4]
	err = t.mutate(ctx, "SPLICETEXT", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.SpliceText(path, int(pos), int(del), text)
	})
	return okOrErr(err)
}

func cmdPutDiff(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("PUTDIFF", args, 3); err != nil {
		return nil, err
	}
	key, path, diff := args[0], args[1], args[2]
	err := t.mutate(ctx, "PUTDIFF", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.PutDiff(path, diff)
	})
	return okOrErr(err)
}

func cmdCreateList(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("CREATELIST", args, 2); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	err := t.mutate(ctx, "CREATELIST", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.CreateList(path)
	})
	return okOrErr(err)
}

func cmdAppendText(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("APPENDTEXT", args, 3); err != nil {
		return nil, err
	}
	key, path, value := args[0], args[1], args[2]
	err := t.mutate(ctx, "APPENDTEXT", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.AppendText(path, value)
	})
	return okOrErr(err)
}

func cmdAppendInt(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("APPENDINT", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseInt("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "APPENDINT", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.AppendInt(path, v)
	})
	return okOrErr(err)
}

func cmdAppendDouble(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("APPENDDOUBLE", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseFloat("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "APPENDDOUBLE", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.AppendDouble(path, v)
	})
	return okOrErr(err)
}

func cmdAppendBool(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("APPENDBOOL", args, 3); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	v, err := parseBool("value", args[2])
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "APPENDBOOL", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.AppendBool(path, v)
	})
	return okOrErr(err)
}

func cmdListLen(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("LISTLEN", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.ListLen(args[1])
	return nullable(v, ok, err)
}

func cmdMapLen(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("MAPLEN", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	v, ok, err := d.MapLen(args[1])
	return nullable(v, ok, err)
}

// cmdMarkCreate parses `key path name value start end [expand]`.
func cmdMarkCreate(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("MARKCREATE", args, 6); err != nil {
		return nil, err
	}
	key, path, name := args[0], args[1], args[2]
	value := parseMarkValue(args[3])
	start, err := parseInt("start", args[4])
	if err != nil {
		return nil, err
	}
	end, err := parseInt("end", args[5])
	if err != nil {
		return nil, err
	}
	expandTok := ""
	if len(args) > 6 {
		expandTok = args[6]
	}
	expand, err := amdoc.ParseExpand(expandTok)
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "MARKCREATE", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.MarkCreate(path, name, value, int(start), int(end), expand)
	})
	return okOrErr(err)
}

func cmdMarkClear(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("MARKCLEAR", args, 5); err != nil {
		return nil, err
	}
	key, path, name := args[0], args[1], args[2]
	start, err := parseInt("start", args[3])
	if err != nil {
		return nil, err
	}
	end, err := parseInt("end", args[4])
	if err != nil {
		return nil, err
	}
	expandTok := ""
	if len(args) > 5 {
		expandTok = args[5]
	}
	expand, err := amdoc.ParseExpand(expandTok)
	if err != nil {
		return nil, err
	}
	err = t.mutate(ctx, "MARKCLEAR", key, func(d *amdoc.Document) ([][]byte, error) {
		return d.MarkClear(path, name, int(start), int(end), expand)
	})
	return okOrErr(err)
}

func cmdMarks(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("MARKS", args, 2); err != nil {
		return nil, err
	}
	d, err := getDoc(ctx, t, args[0])
	if err != nil {
		return nil, err
	}
	marks, err := d.MarkList(args[1])
	if err != nil {
		return nil, err
	}
	return marks, nil
}

func okOrErr(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return OK, nil
}

// nullable converts a (value, ok, err) read result into a reply: nil
// when ok is false (spec.md §7: reads never error on a bad traversal,
// they return null), the error itself if one occurred, or the value.
func nullable[T any](v T, ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return v, nil
}
