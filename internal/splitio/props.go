package splitio

import (
	"fmt"

	"github.com/sempervictus/zstream-split/internal/alias"
	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/nvlist"
)

// propCtx carries the substitution parameters threaded through every
// level of the property rewrite (spec §4.3), grounded on zcut_prop.c's
// prop_info_t.
type propCtx struct {
	oldGUID uint64
	newGUID uint64
	oldName string // original stream's current sub-stream snapshot name
	newName string // newly minted sub-stream snapshot name
	aliases *alias.Cache
}

func (c propCtx) renaming() bool { return c.aliases != nil && c.aliases.Active() }

func (c propCtx) alias(name string) string {
	if c.aliases == nil {
		return name
	}
	return c.aliases.Alias(name)
}

// RewriteProps implements spec §4.3 steps 1-5: unpack the compound
// BEGIN's XDR property blob, rewrite identifiers to match newBegin, and
// repack. Grounded on zcut_prop.c's new_property/begin_prop_hdlr chain.
func RewriteProps(data []byte, curBegin, newBegin drr.Record, aliases *alias.Cache) ([]byte, error) {
	root, err := nvlist.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPropDecode, err)
	}

	ctx := propCtx{
		oldGUID: curBegin.Begin().ToGUID(),
		newGUID: newBegin.Begin().ToGUID(),
		oldName: curBegin.Begin().SnapName(),
		newName: newBegin.Begin().SnapName(),
		aliases: aliases,
	}

	out, err := rewriteRoot(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPropEncode, err)
	}

	packed, err := out.Pack()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPropEncode, err)
	}
	return packed, nil
}

func rewriteRoot(ctx propCtx, src *nvlist.List) (*nvlist.List, error) {
	dst := nvlist.New()
	err := src.Iterate(func(name string, v nvlist.Value) error {
		switch name {
		case "toguid":
			return dst.Add(name, nvlist.Uint64(ctx.newGUID))
		case "fromsnap":
			if ctx.renaming() {
				return dst.Add(name, nvlist.String(""))
			}
			return dst.Add(name, v)
		case "tosnap":
			return dst.Add(name, nvlist.String(ctx.alias(v.Str)))
		case "fss":
			newFss, err := rewriteFss(ctx, v.List)
			if err != nil {
				return err
			}
			return dst.Add(name, nvlist.NVList(newFss))
		default:
			return dst.Add(name, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func rewriteFss(ctx propCtx, src *nvlist.List) (*nvlist.List, error) {
	dst := nvlist.New()
	err := src.Iterate(func(fsName string, v nvlist.Value) error {
		newVol, err := rewriteVol(ctx, v.List)
		if err != nil {
			return err
		}
		return dst.Add(fsName, nvlist.NVList(newVol))
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func rewriteVol(ctx propCtx, src *nvlist.List) (*nvlist.List, error) {
	dst := nvlist.New()
	err := src.Iterate(func(name string, v nvlist.Value) error {
		switch name {
		case "snaps":
			newSnaps, err := rewriteSnaps(ctx, v.List)
			if err != nil {
				return err
			}
			return dst.Add(name, nvlist.NVList(newSnaps))
		case "snapprops":
			newProps, err := rewriteSnapProps(ctx, v.List)
			if err != nil {
				return err
			}
			return dst.Add(name, nvlist.NVList(newProps))
		default:
			return dst.Add(name, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// rewriteSnaps implements zcut_prop.c's snaps_hdlr: when aliasing is
// off, the single entry whose guid equals the original to-guid is
// replaced by {newName -> newGUID}; other entries pass through. When
// aliasing is on, every key whose alias differs from itself is re-keyed
// to its alias (value unchanged); entries that alias to themselves are
// dropped.
func rewriteSnaps(ctx propCtx, src *nvlist.List) (*nvlist.List, error) {
	dst := nvlist.New()
	err := src.Iterate(func(snapName string, v nvlist.Value) error {
		if ctx.renaming() {
			aliased := ctx.alias(snapName)
			if aliased != snapName {
				return dst.Add(aliased, v)
			}
			return nil
		}
		if v.U64 == ctx.oldGUID {
			return dst.Add(ctx.newName, nvlist.Uint64(ctx.newGUID))
		}
		return dst.Add(snapName, v)
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// rewriteSnapProps implements zcut_prop.c's snapprops_hdlr: when
// aliasing is off, the entry keyed by the original to-name is re-keyed
// to newName; other entries pass through unchanged. When aliasing is
// on, the entry whose key aliases to something else is re-keyed to the
// alias of newName; everything else is dropped.
func rewriteSnapProps(ctx propCtx, src *nvlist.List) (*nvlist.List, error) {
	dst := nvlist.New()
	err := src.Iterate(func(name string, v nvlist.Value) error {
		renaming := ctx.renaming()
		matchRename := renaming && ctx.alias(name) != name
		matchPlain := !renaming && name == ctx.oldName

		switch {
		case matchRename:
			return dst.Add(ctx.alias(ctx.newName), v)
		case matchPlain:
			return dst.Add(ctx.newName, v)
		case !renaming:
			return dst.Add(name, v)
		default:
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}
